package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/sensorhub/internal/application"
	"github.com/ericfisherdev/sensorhub/internal/domain/model"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// seedStore inserts n readings one minute apart starting at baseTime.
func seedStore(t *testing.T, n int) *memReadingStore {
	t.Helper()
	store := &memReadingStore{}
	for i := range n {
		m := sampleMeasurements
		m.IR = int64(i)
		_, err := store.Insert(context.Background(), m, baseTime.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	return store
}

func ptr(t time.Time) *time.Time { return &t }

func TestQueryService_GetLatest_Empty(t *testing.T) {
	svc := application.NewQueryService(&memReadingStore{})

	_, err := svc.GetLatest(context.Background())
	assert.ErrorIs(t, err, application.ErrNoReadings)
}

func TestQueryService_GetLatest_MatchesFirstHistoryRow(t *testing.T) {
	svc := application.NewQueryService(seedStore(t, 7))
	ctx := context.Background()

	latest, err := svc.GetLatest(ctx)
	require.NoError(t, err)

	page, err := svc.GetHistory(ctx, application.HistoryQuery{Page: 1, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, page.Readings, 1)
	assert.Equal(t, latest, page.Readings[0])
}

func TestQueryService_GetHistory_Empty(t *testing.T) {
	svc := application.NewQueryService(&memReadingStore{})

	page, err := svc.GetHistory(context.Background(), application.HistoryQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Readings)
	assert.Empty(t, page.Readings)
	assert.Zero(t, page.Total)
	assert.Zero(t, page.TotalPages())
}

func TestQueryService_GetHistory_OffsetAndTotal(t *testing.T) {
	store := seedStore(t, 25)
	svc := application.NewQueryService(store)

	page, err := svc.GetHistory(context.Background(), application.HistoryQuery{Page: 3, PageSize: 10})
	require.NoError(t, err)

	assert.Equal(t, int64(20), store.lastOffset)
	assert.Equal(t, 10, store.lastLimit)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, int64(3), page.TotalPages())
	assert.Len(t, page.Readings, 5)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.PageSize)
}

func TestQueryService_GetHistory_PastTheEnd(t *testing.T) {
	svc := application.NewQueryService(seedStore(t, 3))

	page, err := svc.GetHistory(context.Background(), application.HistoryQuery{Page: 99, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Readings)
	assert.Equal(t, int64(3), page.Total)
}

func TestQueryService_GetHistory_PagesConcatenate(t *testing.T) {
	const n = 23
	svc := application.NewQueryService(seedStore(t, n))
	ctx := context.Background()

	var all []model.SensorReading
	for p := 1; ; p++ {
		page, err := svc.GetHistory(ctx, application.HistoryQuery{Page: p, PageSize: 4})
		require.NoError(t, err)
		if len(page.Readings) == 0 {
			break
		}
		all = append(all, page.Readings...)
	}

	require.Len(t, all, n)
	seen := make(map[int64]bool)
	for i, r := range all {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
		if i > 0 {
			assert.False(t, r.Timestamp.After(all[i-1].Timestamp), "not descending at %d", i)
		}
	}
}

func TestQueryService_GetHistory_InclusiveBounds(t *testing.T) {
	svc := application.NewQueryService(seedStore(t, 10))

	page, err := svc.GetHistory(context.Background(), application.HistoryQuery{
		Page:      1,
		PageSize:  100,
		StartDate: ptr(baseTime.Add(2 * time.Minute)),
		EndDate:   ptr(baseTime.Add(5 * time.Minute)),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), page.Total)
	require.Len(t, page.Readings, 4)
	assert.Equal(t, baseTime.Add(5*time.Minute), page.Readings[0].Timestamp)
	assert.Equal(t, baseTime.Add(2*time.Minute), page.Readings[3].Timestamp)
}

func TestQueryService_GetHistory_BoundsSnapToMicroseconds(t *testing.T) {
	store := seedStore(t, 1)
	svc := application.NewQueryService(store)

	start := baseTime.Add(500 * time.Nanosecond)
	end := baseTime.Add(time.Minute + 1500*time.Nanosecond)

	_, err := svc.GetHistory(context.Background(), application.HistoryQuery{
		Page: 1, PageSize: 10, StartDate: &start, EndDate: &end,
	})
	require.NoError(t, err)

	assert.Equal(t, baseTime.Add(time.Microsecond), *store.lastFilter.Start)
	assert.Equal(t, baseTime.Add(time.Minute+time.Microsecond), *store.lastFilter.End)
}

func TestQueryService_GetHistory_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query application.HistoryQuery
		field string
	}{
		{name: "page zero", query: application.HistoryQuery{Page: 0, PageSize: 10}, field: "page"},
		{name: "negative page", query: application.HistoryQuery{Page: -1, PageSize: 10}, field: "page"},
		{name: "page size zero", query: application.HistoryQuery{Page: 1, PageSize: 0}, field: "page_size"},
		{name: "page size too large", query: application.HistoryQuery{Page: 1, PageSize: 101}, field: "page_size"},
		{
			name: "start after end",
			query: application.HistoryQuery{
				Page: 1, PageSize: 10,
				StartDate: ptr(baseTime.Add(time.Hour)),
				EndDate:   ptr(baseTime),
			},
			field: "start_date",
		},
		{
			name: "end date past year 9999 in UTC",
			query: application.HistoryQuery{
				Page: 1, PageSize: 10,
				EndDate: ptr(time.Date(9999, 12, 31, 23, 0, 0, 0, time.FixedZone("EST", -5*3600))),
			},
			field: "end_date",
		},
		{
			name: "start date before year 0 in UTC",
			query: application.HistoryQuery{
				Page: 1, PageSize: 10,
				StartDate: ptr(time.Date(0, 1, 1, 0, 30, 0, 0, time.FixedZone("CET", 3600))),
			},
			field: "start_date",
		},
		{
			name: "start date rounds up into year 10000",
			query: application.HistoryQuery{
				Page: 1, PageSize: 10,
				StartDate: ptr(time.Date(9999, 12, 31, 23, 59, 59, 999999500, time.UTC)),
			},
			field: "start_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memReadingStore{}
			svc := application.NewQueryService(store)

			_, err := svc.GetHistory(context.Background(), tt.query)
			ve, ok := application.IsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			require.Len(t, ve.Fields, 1)
			assert.Equal(t, tt.field, ve.Fields[0].Field)
			assert.Zero(t, store.lastLimit, "invalid query must not reach the store")
		})
	}
}

func TestQueryService_GetHistory_PageSizeLimits(t *testing.T) {
	svc := application.NewQueryService(seedStore(t, 2))

	for _, size := range []int{1, 100} {
		_, err := svc.GetHistory(context.Background(), application.HistoryQuery{Page: 1, PageSize: size})
		assert.NoError(t, err, "page_size %d", size)
	}
}

func TestQueryService_StoreFailure(t *testing.T) {
	boom := errors.New("io error")
	svc := application.NewQueryService(&memReadingStore{err: boom})

	_, err := svc.GetHistory(context.Background(), application.HistoryQuery{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, boom)

	_, err = svc.GetLatest(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, application.ErrNoReadings)
}

func TestQueryService_GetHistory_LastRepresentableYear(t *testing.T) {
	svc := application.NewQueryService(seedStore(t, 3))

	page, err := svc.GetHistory(context.Background(), application.HistoryQuery{
		Page: 1, PageSize: 10,
		EndDate: ptr(time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
}
