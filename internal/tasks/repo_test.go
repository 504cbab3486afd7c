package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/cupshup/ops-backend/pkg/db/dbtest"
	"github.com/cupshup/ops-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type seeded struct {
	activityA, activityB models.Activity
	vendor               models.Vendor
	clientA              uuid.UUID
}

func seed(t *testing.T, db *gorm.DB) seeded {
	t.Helper()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clientA, clientB := uuid.New(), uuid.New()
	a := models.Activity{ClientID: &clientA, Brand: "Brew Co", City: "Pune", Location: "Mall", StartDate: day, EndDate: day, CreatedBy: uuid.New()}
	b := models.Activity{ClientID: &clientB, Brand: "Snack Co", City: "Delhi", Location: "Market", StartDate: day, EndDate: day, CreatedBy: uuid.New()}
	v := models.Vendor{Name: "Field Force", Email: "ops@ff.in"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)
	require.NoError(t, db.Create(&v).Error)
	return seeded{activityA: a, activityB: b, vendor: v, clientA: clientA}
}

func newRecord(activityID, vendorID uuid.UUID, orderID *string, createdAt time.Time) *models.TaskRecord {
	key := uuid.NewString() + ".jpg"
	return &models.TaskRecord{
		ActivityID:       activityID,
		VendorID:         vendorID,
		CustomerName:     "Asha",
		CustomerPhone:    "9820000000",
		ProductsSold:     "2x cold brew",
		SalesOrderNumber: "SO-1",
		ImageURL:         "https://storage.googleapis.com/order_images/" + key,
		ImageKey:         key,
		OrderID:          orderID,
		CreatedAt:        createdAt,
	}
}

func TestRepositoryListFiltersAndJoins(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	s := seed(t, db)

	id := "ABC123"
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertTaskRecord(ctx, newRecord(s.activityA.ID, s.vendor.ID, &id, base)))
	require.NoError(t, repo.InsertTaskRecord(ctx, newRecord(s.activityA.ID, s.vendor.ID, nil, base.Add(time.Minute))))
	require.NoError(t, repo.InsertTaskRecord(ctx, newRecord(s.activityB.ID, uuid.New(), nil, base.Add(2*time.Minute))))

	all, err := repo.List(ctx, Filter{}, nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Snack Co", all[0].ActivityBrand)
	assert.Nil(t, all[0].VendorName, "unknown vendor leaves the name empty")
	require.NotNil(t, all[1].VendorName)
	assert.Equal(t, "Field Force", *all[1].VendorName)

	own, err := repo.List(ctx, Filter{ClientID: &s.clientA}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	withID := true
	found, err := repo.List(ctx, Filter{ActivityID: &s.activityA.ID, HasOrderID: &withID}, nil, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.NotNil(t, found[0].OrderID)
	assert.Equal(t, "ABC123", *found[0].OrderID)

	export, err := repo.ListForExport(ctx, Filter{VendorID: &s.vendor.ID}, 1)
	require.NoError(t, err)
	assert.Len(t, export, 1)
}

func TestRepositoryMarkWorkStartedOnce(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	s := seed(t, db)

	rec := newRecord(s.activityA.ID, s.vendor.ID, nil, time.Now().UTC())
	require.NoError(t, repo.InsertTaskRecord(ctx, rec))

	changed, err := repo.MarkWorkStarted(ctx, rec.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkWorkStarted(ctx, rec.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.WorkStartedAt)
}

func TestRepositoryReferencedImageKeys(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	s := seed(t, db)

	rec := newRecord(s.activityA.ID, s.vendor.ID, nil, time.Now().UTC())
	require.NoError(t, repo.InsertTaskRecord(ctx, rec))

	refs, err := repo.ReferencedImageKeys(ctx, []string{rec.ImageKey, "orphan.jpg"})
	require.NoError(t, err)
	assert.Contains(t, refs, rec.ImageKey)
	assert.NotContains(t, refs, "orphan.jpg")

	empty, err := repo.ReferencedImageKeys(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
