package db

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + unsafeName.ReplaceAllString(t.Name(), "_") + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	require.NoError(t, err)
	client := NewFromConn(conn)
	require.NoError(t, client.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	return conn
}

func strPtr(s string) *string { return &s }

func seedUsers(t *testing.T, repo *UserRepo) {
	t.Helper()
	ctx := context.Background()
	users := []domain.User{
		{UserID: "u1", Email: "ana@dealer.test", FirstName: "Ana", LastName: "Diaz", Role: domain.RoleManager, LocationID: strPtr("loc-a"), Active: true},
		{UserID: "u2", Email: "ben@dealer.test", FirstName: "Ben", LastName: "Cole", Role: domain.RoleSales, LocationID: strPtr("loc-a"), Active: true},
		{UserID: "u3", Email: "cat@dealer.test", FirstName: "Cat", LastName: "Ames", Role: domain.RoleManager, LocationID: strPtr("loc-b"), Active: true},
		{UserID: "u4", Email: "dan@dealer.test", FirstName: "Dan", LastName: "Bell", Role: domain.RoleManager, LocationID: strPtr("loc-a"), Active: false},
	}
	for i := range users {
		require.NoError(t, repo.Create(ctx, &users[i]))
	}
}

func TestUserRepo_CreateDuplicateEmailConflicts(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{UserID: "u1", Email: "a@dealer.test", FirstName: "A", LastName: "B", Role: domain.RoleSales, Active: true}))
	err := repo.Create(ctx, &domain.User{UserID: "u2", Email: "a@dealer.test", FirstName: "C", LastName: "D", Role: domain.RoleSales, Active: true})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepo_GetMissing(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))

	_, err := repo.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_GetByEmailIgnoresCase(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	seedUsers(t, repo)

	u, err := repo.GetByEmail(context.Background(), "ANA@dealer.test")

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
}

func TestUserRepo_ListActive(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	seedUsers(t, repo)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter domain.UserFilter
		want   []string
	}{
		{"by location and role skips inactive", domain.UserFilter{LocationID: "loc-a", Role: domain.RoleManager}, []string{"u1"}},
		{"by ids", domain.UserFilter{IDs: []string{"u2", "u4"}}, []string{"u2"}},
		{"by role", domain.UserFilter{Role: domain.RoleManager}, []string{"u1", "u3"}},
		{"no match", domain.UserFilter{LocationID: "loc-z"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := repo.ListActive(ctx, tt.filter)
			require.NoError(t, err)
			var got []string
			for _, u := range users {
				got = append(got, u.UserID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestUserRepo_ListPaginatesWithTotal(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	seedUsers(t, repo)

	users, total, err := repo.List(context.Background(), domain.UserFilter{Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, users, 2)
	assert.Equal(t, "Ames", users[0].LastName)
}

func TestUserRepo_Update(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	seedUsers(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, "u2", map[string]interface{}{"role": domain.RoleManager}))
	u, err := repo.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, u.Role)

	assert.ErrorIs(t, repo.Update(ctx, "missing", map[string]interface{}{"role": domain.RoleSales}), domain.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, "u2", map[string]interface{}{}), domain.ErrBadRequest)
}

func TestLocationRepo(t *testing.T) {
	repo := NewLocationRepo(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Location{LocationID: "l1", Code: "DTN", Name: "Downtown", Active: true}))
	require.NoError(t, repo.Create(ctx, &domain.Location{LocationID: "l2", Code: "AIR", Name: "Airport", Active: false}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.Location{LocationID: "l3", Code: "DTN", Name: "Dup"}), domain.ErrConflict)

	l, err := repo.GetByCode(ctx, "AIR")
	require.NoError(t, err)
	assert.Equal(t, "l2", l.LocationID)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Airport", all[0].Name)

	active := true
	onlyActive, err := repo.List(ctx, &active)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, "l1", onlyActive[0].LocationID)
}

func TestVehicleRepo_ListFilters(t *testing.T) {
	repo := NewVehicleRepo(newTestDB(t))
	ctx := context.Background()

	vehicles := []domain.Vehicle{
		{VehicleID: "v1", VIN: "1HGCM82633A000001", StockNumber: "S-100", Year: 2021, Make: "Honda", Model: "Civic", Status: domain.VehicleAvailable, LocationID: "l1"},
		{VehicleID: "v2", VIN: "1HGCM82633A000002", StockNumber: "S-200", Year: 2022, Make: "Toyota", Model: "Camry", Status: domain.VehicleReserved, LocationID: "l1"},
		{VehicleID: "v3", VIN: "1HGCM82633A000003", StockNumber: "S-300", Year: 2020, Make: "Honda", Model: "Accord", Status: domain.VehicleAvailable, LocationID: "l2"},
	}
	for i := range vehicles {
		require.NoError(t, repo.Create(ctx, &vehicles[i]))
	}

	tests := []struct {
		name   string
		filter domain.VehicleFilter
		want   []string
	}{
		{"location", domain.VehicleFilter{LocationID: "l1"}, []string{"v1", "v2"}},
		{"status", domain.VehicleFilter{Status: domain.VehicleAvailable}, []string{"v1", "v3"}},
		{"make ignores case", domain.VehicleFilter{Make: "honda"}, []string{"v1", "v3"}},
		{"search model", domain.VehicleFilter{Search: "camr"}, []string{"v2"}},
		{"search stock number", domain.VehicleFilter{Search: "s-300"}, []string{"v3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			var got []string
			for _, v := range out {
				got = append(got, v.VehicleID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestVehicleRepo_DuplicateVIN(t *testing.T) {
	repo := NewVehicleRepo(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Vehicle{VehicleID: "v1", VIN: "1HGCM82633A000001", Status: domain.VehicleAvailable, LocationID: "l1"}))
	err := repo.Create(ctx, &domain.Vehicle{VehicleID: "v2", VIN: "1HGCM82633A000001", Status: domain.VehicleAvailable, LocationID: "l1"})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTransferRepo_List(t *testing.T) {
	conn := newTestDB(t)
	repo := NewTransferRepo(conn)
	ctx := context.Background()

	transfers := []domain.Transfer{
		{TransferID: "t1", VehicleID: "v1", FromLocationID: "l1", ToLocationID: "l2", RequestedBy: "u1", Status: domain.TransferRequested, Priority: domain.PriorityNormal},
		{TransferID: "t2", VehicleID: "v2", FromLocationID: "l3", ToLocationID: "l1", RequestedBy: "u1", Status: domain.TransferDelivered, Priority: domain.PriorityUrgent},
		{TransferID: "t3", VehicleID: "v3", FromLocationID: "l2", ToLocationID: "l3", RequestedBy: "u1", Status: domain.TransferCancelled, Priority: domain.PriorityLow},
	}
	require.NoError(t, conn.Create(&transfers).Error)

	t.Run("location matches either end", func(t *testing.T) {
		out, total, err := repo.List(ctx, domain.TransferFilter{LocationID: "l1"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		var got []string
		for _, tr := range out {
			got = append(got, tr.TransferID)
		}
		assert.ElementsMatch(t, []string{"t1", "t2"}, got)
	})

	t.Run("location and status combine", func(t *testing.T) {
		out, _, err := repo.List(ctx, domain.TransferFilter{LocationID: "l1", Status: domain.TransferDelivered})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "t2", out[0].TransferID)
	})
}

func TestTransferRepo_OpenReservesVehicle(t *testing.T) {
	conn := newTestDB(t)
	repo := NewTransferRepo(conn)
	vehicles := NewVehicleRepo(conn)
	ctx := context.Background()
	require.NoError(t, vehicles.Create(ctx, &domain.Vehicle{VehicleID: "v1", VIN: "1HGCM82633A000001", Status: domain.VehicleAvailable, LocationID: "l1"}))

	first := &domain.Transfer{TransferID: "t1", VehicleID: "v1", FromLocationID: "l1", ToLocationID: "l2", RequestedBy: "u1", Status: domain.TransferRequested, Priority: domain.PriorityNormal, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Open(ctx, first))

	v, err := vehicles.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleReserved, v.Status)

	second := &domain.Transfer{TransferID: "t2", VehicleID: "v1", FromLocationID: "l1", ToLocationID: "l3", RequestedBy: "u2", Status: domain.TransferRequested, Priority: domain.PriorityNormal, CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, repo.Open(ctx, second), domain.ErrConflict)

	_, err = repo.Get(ctx, "t2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransferRepo_OpenRollsBackOnInsertFailure(t *testing.T) {
	conn := newTestDB(t)
	repo := NewTransferRepo(conn)
	vehicles := NewVehicleRepo(conn)
	ctx := context.Background()
	require.NoError(t, vehicles.Create(ctx, &domain.Vehicle{VehicleID: "v1", VIN: "1HGCM82633A000001", Status: domain.VehicleAvailable, LocationID: "l1"}))
	require.NoError(t, vehicles.Create(ctx, &domain.Vehicle{VehicleID: "v2", VIN: "1HGCM82633A000002", Status: domain.VehicleAvailable, LocationID: "l1"}))
	require.NoError(t, repo.Open(ctx, &domain.Transfer{TransferID: "t1", VehicleID: "v1", FromLocationID: "l1", ToLocationID: "l2", RequestedBy: "u1", Status: domain.TransferRequested, Priority: domain.PriorityNormal}))

	// Same primary key, different vehicle: the insert fails after v2 was reserved.
	err := repo.Open(ctx, &domain.Transfer{TransferID: "t1", VehicleID: "v2", FromLocationID: "l1", ToLocationID: "l2", RequestedBy: "u1", Status: domain.TransferRequested, Priority: domain.PriorityNormal})
	require.ErrorIs(t, err, domain.ErrConflict)

	v, err := vehicles.Get(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleAvailable, v.Status)
}

func TestTransferRepo_Advance(t *testing.T) {
	conn := newTestDB(t)
	repo := NewTransferRepo(conn)
	vehicles := NewVehicleRepo(conn)
	ctx := context.Background()
	require.NoError(t, vehicles.Create(ctx, &domain.Vehicle{VehicleID: "v1", VIN: "1HGCM82633A000001", Status: domain.VehicleAvailable, LocationID: "l1"}))
	require.NoError(t, repo.Open(ctx, &domain.Transfer{TransferID: "t1", VehicleID: "v1", FromLocationID: "l1", ToLocationID: "l2", RequestedBy: "u1", Status: domain.TransferRequested, Priority: domain.PriorityNormal}))

	now := time.Now().UTC()
	err := repo.Advance(ctx, "t1", domain.TransferRequested,
		map[string]interface{}{"status": domain.TransferApproved, "approved_at": now},
		"v1", nil)
	require.NoError(t, err)

	tr, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TransferApproved, tr.Status)
	require.NotNil(t, tr.ApprovedAt)

	err = repo.Advance(ctx, "t1", domain.TransferRequested,
		map[string]interface{}{"status": domain.TransferRejected},
		"v1", map[string]interface{}{"status": domain.VehicleAvailable})
	assert.ErrorIs(t, err, domain.ErrConflict)

	v, err := vehicles.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleReserved, v.Status, "stale transition leaves the vehicle alone")

	err = repo.Advance(ctx, "t1", domain.TransferApproved,
		map[string]interface{}{"status": domain.TransferInTransit},
		"missing", map[string]interface{}{"status": domain.VehicleInTransit})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tr, err = repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TransferApproved, tr.Status, "vehicle failure rolls the transfer back")
}

func TestCommentRepo(t *testing.T) {
	repo := NewCommentRepo(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &domain.Comment{CommentID: "c2", VehicleID: "v1", UserID: "u1", Body: "second", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &domain.Comment{CommentID: "c1", VehicleID: "v1", UserID: "u1", Body: "first", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &domain.Comment{CommentID: "c3", VehicleID: "v2", UserID: "u1", Body: "other", CreatedAt: base}))

	comments, err := repo.ListByVehicle(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)

	for i, typ := range []string{domain.VehicleActivityCreated, domain.VehicleActivityTransfer, domain.VehicleActivityComment} {
		require.NoError(t, repo.AppendActivity(ctx, &domain.VehicleActivity{
			ActivityID: string(rune('a' + i)),
			VehicleID:  "v1",
			Type:       typ,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	latest, err := repo.ListActivity(ctx, "v1", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, domain.VehicleActivityComment, latest[0].Type)
	assert.Equal(t, domain.VehicleActivityTransfer, latest[1].Type)
}
