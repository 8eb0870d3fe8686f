package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"grove/internal/db/dbtest"
	"grove/internal/models"
)

func seed(t *testing.T, gdb *gorm.DB) (models.User, []models.Product) {
	t.Helper()
	u := models.User{Name: "Seller", Email: "seller@example.com", PasswordHash: "x"}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	ps := []models.Product{
		{SellerID: u.ID, Name: "Stethoscope", Description: "dual head", PriceCents: 4999, Category: models.CategoryDiagnosticEquipment, Quantity: 5},
		{SellerID: u.ID, Name: "Scalpel", Description: "steel blade", PriceCents: 1299, Category: models.CategorySurgicalInstruments, Quantity: 1},
		{SellerID: u.ID, Name: "Gloves", Description: "nitrile box", PriceCents: 899, Category: models.CategoryPersonalProtectiveEquipment, Quantity: 100},
	}
	if err := gdb.Create(&ps).Error; err != nil {
		t.Fatalf("products: %v", err)
	}
	return u, ps
}

func TestProductsListAndSearch(t *testing.T) {
	gdb := dbtest.Open(t)
	_, ps := seed(t, gdb)
	r := &Products{DB: gdb}
	ctx := context.Background()

	all, err := r.List(ctx, ProductFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("list: %v %d", err, len(all))
	}
	if all[0].Category != models.CategoryDiagnosticEquipment || all[0].Seller == nil || all[0].Seller.Name != "Seller" {
		t.Fatalf("unexpected first row: %+v", all[0])
	}

	found, err := r.List(ctx, ProductFilter{Query: "NITRILE"})
	if err != nil || len(found) != 1 || found[0].ID != ps[2].ID {
		t.Fatalf("search: %v %+v", err, found)
	}

	cats, err := r.Categories(ctx)
	if err != nil || len(cats) != 3 {
		t.Fatalf("categories: %v %v", err, cats)
	}

	if _, err := r.Get(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProductsNeighborWraps(t *testing.T) {
	gdb := dbtest.Open(t)
	_, ps := seed(t, gdb)
	r := &Products{DB: gdb}
	ctx := context.Background()

	next, err := r.Neighbor(ctx, ps[2].ID, 1)
	if err != nil || next.ID != ps[0].ID {
		t.Fatalf("next of last: %v %d", err, next.ID)
	}
	prev, err := r.Neighbor(ctx, ps[0].ID, -1)
	if err != nil || prev.ID != ps[2].ID {
		t.Fatalf("prev of first: %v %d", err, prev.ID)
	}
	mid, err := r.Neighbor(ctx, ps[0].ID, 1)
	if err != nil || mid.ID != ps[1].ID {
		t.Fatalf("next: %v %d", err, mid.ID)
	}
}

func TestProductsAdminList(t *testing.T) {
	gdb := dbtest.Open(t)
	seed(t, gdb)
	r := &Products{DB: gdb}

	rows, count, err := r.AdminList(context.Background(), AdminProductQuery{
		Page:   Page{Page: 0, PerPage: 2},
		SortBy: "price",
	})
	if err != nil || count != 3 || len(rows) != 2 {
		t.Fatalf("admin list: %v %d %d", err, count, len(rows))
	}
	if rows[0].PriceCents != 899 || rows[1].PriceCents != 1299 {
		t.Fatalf("sort: %d %d", rows[0].PriceCents, rows[1].PriceCents)
	}
}

func TestOrdersCreateDecrementsStock(t *testing.T) {
	gdb := dbtest.Open(t)
	u, ps := seed(t, gdb)
	r := &Orders{DB: gdb}
	ctx := context.Background()

	o := models.Order{
		UserID:         u.ID,
		DeliveryOption: "standard",
		Items:          []models.OrderItem{{ProductID: ps[0].ID, Quantity: 2, PriceCents: ps[0].PriceCents}},
	}
	if err := r.Create(ctx, &o); err != nil {
		t.Fatalf("create: %v", err)
	}
	var p models.Product
	gdb.First(&p, ps[0].ID)
	if p.Quantity != 3 {
		t.Fatalf("quantity = %d", p.Quantity)
	}
	if n, _ := PendingEvents(gdb); n != 1 {
		t.Fatalf("outbox rows = %d", n)
	}

	short := models.Order{
		UserID:         u.ID,
		DeliveryOption: "standard",
		Items: []models.OrderItem{
			{ProductID: ps[2].ID, Quantity: 1, PriceCents: ps[2].PriceCents},
			{ProductID: ps[1].ID, Quantity: 2, PriceCents: ps[1].PriceCents},
		},
	}
	if err := r.Create(ctx, &short); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	var gloves models.Product
	if err := gdb.First(&gloves, ps[2].ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if gloves.Quantity != 100 {
		t.Fatalf("rolled back quantity = %d", gloves.Quantity)
	}
}

func TestOrdersArchiveToggle(t *testing.T) {
	gdb := dbtest.Open(t)
	u, ps := seed(t, gdb)
	r := &Orders{DB: gdb}
	ctx := context.Background()

	o := models.Order{
		UserID:         u.ID,
		DeliveryOption: "express",
		Items: []models.OrderItem{
			{ProductID: ps[0].ID, Quantity: 1, PriceCents: ps[0].PriceCents},
			{ProductID: ps[2].ID, Quantity: 1, PriceCents: ps[2].PriceCents},
		},
	}
	if err := r.Create(ctx, &o); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := r.ToggleItemArchived(ctx, o.Items[0].ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	live, _ := r.ListForUser(ctx, u.ID, false)
	if len(live) != 1 || len(live[0].Items) != 1 {
		t.Fatalf("live view: %+v", live)
	}

	if _, err := r.ToggleItemArchived(ctx, o.Items[1].ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	archived, _ := r.ListForUser(ctx, u.ID, true)
	if len(archived) != 1 || len(archived[0].Items) != 2 {
		t.Fatalf("archived view: %+v", archived)
	}
	if live, _ := r.ListForUser(ctx, u.ID, false); len(live) != 0 {
		t.Fatalf("order still live: %+v", live)
	}
}

func TestReviewsCreateUpdatesRating(t *testing.T) {
	gdb := dbtest.Open(t)
	u, ps := seed(t, gdb)
	r := &Reviews{DB: gdb}
	ctx := context.Background()

	for _, rating := range []int{5, 2} {
		if _, err := r.Create(ctx, &models.Review{ProductID: ps[0].ID, UserID: u.ID, Rating: rating}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	var p models.Product
	gdb.First(&p, ps[0].ID)
	if p.Rating != 3.5 {
		t.Fatalf("rating = %v", p.Rating)
	}

	stats, err := (&Products{DB: gdb}).Stats(ctx, []uint{ps[0].ID})
	if err != nil || stats[ps[0].ID].ReviewCount != 2 {
		t.Fatalf("stats: %v %+v", err, stats)
	}

	list, err := r.ForProduct(ctx, ps[0].ID)
	if err != nil || len(list) != 2 || list[0].User == nil || list[0].User.Name != "Seller" {
		t.Fatalf("for product: %v %+v", err, list)
	}

	if _, err := r.Create(ctx, &models.Review{ProductID: 999, UserID: u.ID, Rating: 4}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsersDefaultAddress(t *testing.T) {
	gdb := dbtest.Open(t)
	u, _ := seed(t, gdb)
	r := &Users{DB: gdb}
	ctx := context.Background()

	first := models.Address{UserID: u.ID, Name: "Home", Street: "1 Main", City: "X", Country: "US", IsDefault: true}
	second := models.Address{UserID: u.ID, Name: "Work", Street: "2 Main", City: "X", Country: "US", IsDefault: true}
	if err := r.AddAddress(ctx, &first); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.AddAddress(ctx, &second); err != nil {
		t.Fatalf("add: %v", err)
	}
	list, _ := r.Addresses(ctx, u.ID)
	if len(list) != 2 || list[0].ID != second.ID || list[1].IsDefault {
		t.Fatalf("addresses: %+v", list)
	}
}

func TestUsersDefaultPaymentMethod(t *testing.T) {
	gdb := dbtest.Open(t)
	u, _ := seed(t, gdb)
	r := &Users{DB: gdb}
	ctx := context.Background()

	cards := []models.PaymentMethod{
		{UserID: u.ID, Type: "VISA", CardNumber: "4242424242424242", NameOnCard: "A", ExpirationDate: "12/30", IsDefault: true},
		{UserID: u.ID, Type: "MASTERCARD", CardNumber: "5555555555554444", NameOnCard: "A", ExpirationDate: "11/29"},
		{UserID: u.ID, Type: "AMEX", CardNumber: "378282246310005", NameOnCard: "A", ExpirationDate: "10/28", IsDefault: true},
	}
	for i := range cards {
		if err := r.AddPaymentMethod(ctx, &cards[i]); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	list, err := r.PaymentMethods(ctx, u.ID)
	if err != nil || len(list) != 3 {
		t.Fatalf("payment methods: %v %d", err, len(list))
	}
	defaults := 0
	for _, pm := range list {
		if pm.IsDefault {
			defaults++
		}
	}
	if defaults != 1 || list[0].ID != cards[2].ID {
		t.Fatalf("defaults = %d, first = %d", defaults, list[0].ID)
	}
}

func TestUsersAdminList(t *testing.T) {
	gdb := dbtest.Open(t)
	seed(t, gdb)
	for _, u := range []models.User{
		{Name: "Alice", Email: "alice@clinic.org", PasswordHash: "x", Role: models.RoleAdmin},
		{Name: "Bob", Email: "bob@example.com", PasswordHash: "x"},
		{Name: "Carol", Email: "carol@clinic.org", PasswordHash: "x"},
	} {
		if err := gdb.Create(&u).Error; err != nil {
			t.Fatalf("user: %v", err)
		}
	}
	r := &Users{DB: gdb}

	cases := []struct {
		name  string
		q     AdminUserQuery
		count int64
		first string
	}{
		{"all by name", AdminUserQuery{SortBy: "name"}, 4, "Alice"},
		{"name desc", AdminUserQuery{SortBy: "name", SortDesc: true}, 4, "Seller"},
		{"name filter", AdminUserQuery{Name: "CAR"}, 1, "Carol"},
		{"email filter", AdminUserQuery{Email: "clinic", SortBy: "email", SortDesc: true}, 2, "Carol"},
		{"role filter", AdminUserQuery{Role: models.RoleAdmin}, 1, "Alice"},
		{"paged", AdminUserQuery{Page: Page{Page: 1, PerPage: 3}, SortBy: "name"}, 4, "Seller"},
	}
	for _, c := range cases {
		rows, count, err := r.AdminList(context.Background(), c.q)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if count != c.count || len(rows) == 0 || rows[0].Name != c.first {
			t.Fatalf("%s: count=%d rows=%+v", c.name, count, rows)
		}
	}
}

func TestProductsSuggestionsLimit(t *testing.T) {
	gdb := dbtest.Open(t)
	u, _ := seed(t, gdb)
	for i := 0; i < 8; i++ {
		p := models.Product{SellerID: u.ID, Name: "Gauze roll", Description: "sterile", PriceCents: 199, Category: models.CategoryPatientCareEssentials}
		if err := gdb.Create(&p).Error; err != nil {
			t.Fatalf("product: %v", err)
		}
	}
	r := &Products{DB: gdb}

	cases := []struct {
		query string
		limit int
		want  int
	}{
		{"gauze", 5, 5},
		{"STERILE", 3, 3},
		{"scalpel", 5, 1},
		{"nothing", 5, 0},
	}
	for _, c := range cases {
		got, err := r.Suggestions(context.Background(), c.query, c.limit)
		if err != nil || len(got) != c.want {
			t.Fatalf("%q: %v %d", c.query, err, len(got))
		}
	}
}

func TestOrdersArchivedAndUserItems(t *testing.T) {
	gdb := dbtest.Open(t)
	u, ps := seed(t, gdb)
	r := &Orders{DB: gdb}
	ctx := context.Background()

	first := models.Order{UserID: u.ID, DeliveryOption: "standard", Items: []models.OrderItem{
		{ProductID: ps[0].ID, Quantity: 1, PriceCents: ps[0].PriceCents},
		{ProductID: ps[2].ID, Quantity: 2, PriceCents: ps[2].PriceCents},
	}}
	second := models.Order{UserID: u.ID, DeliveryOption: "express", Items: []models.OrderItem{
		{ProductID: ps[2].ID, Quantity: 1, PriceCents: ps[2].PriceCents},
	}}
	for _, o := range []*models.Order{&first, &second} {
		if err := r.Create(ctx, o); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	// an order moves to the archive only once all its items are archived
	steps := []struct {
		toggle               uint
		liveOrders, liveItem int
		archOrders, archItem int
	}{
		{first.Items[1].ID, 2, 2, 0, 0},
		{second.Items[0].ID, 1, 1, 1, 1},
		{first.Items[0].ID, 0, 0, 2, 3},
	}
	for i, st := range steps {
		if _, err := r.ToggleItemArchived(ctx, st.toggle); err != nil {
			t.Fatalf("step %d toggle: %v", i, err)
		}
		for _, view := range []struct {
			archived      bool
			orders, items int
		}{{false, st.liveOrders, st.liveItem}, {true, st.archOrders, st.archItem}} {
			list, err := r.ListForUser(ctx, u.ID, view.archived)
			if err != nil || len(list) != view.orders {
				t.Fatalf("step %d archived=%v: %v %d orders", i, view.archived, err, len(list))
			}
			items := 0
			for _, o := range list {
				for _, it := range o.Items {
					if it.Archived != view.archived {
						t.Fatalf("step %d: item %d archived=%v", i, it.ID, it.Archived)
					}
					items++
				}
			}
			if items != view.items {
				t.Fatalf("step %d archived=%v: %d items", i, view.archived, items)
			}
		}
	}

	all, err := r.UserItems(ctx, u.ID)
	if err != nil || len(all) != 3 {
		t.Fatalf("user items: %v %d", err, len(all))
	}
	for _, it := range all {
		if it.Product == nil {
			t.Fatalf("item %d without product", it.ID)
		}
	}
	if other, _ := r.UserItems(ctx, u.ID+100); len(other) != 0 {
		t.Fatalf("foreign items: %+v", other)
	}
}
