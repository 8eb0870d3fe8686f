package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"grove/internal/cache"
	"grove/internal/cart"
	"grove/internal/db/dbtest"
	"grove/internal/models"
	"grove/internal/pricing"
	"grove/internal/repo"
)

type env struct {
	products *Products
	orders   *Orders
	reviews  *Reviews
	users    *Users
	carts    *Carts
	admin    *Admin

	buyer  models.User
	seller models.User
	admUsr models.User
	addr   models.Address
	card   models.PaymentMethod
	items  []models.Product
}

func newEnv(t *testing.T, rc *cache.Redis) *env {
	t.Helper()
	gdb := dbtest.Open(t)
	ctx := context.Background()
	log := zerolog.Nop()

	userRepo := &repo.Users{DB: gdb}
	reviewRepo := &repo.Reviews{DB: gdb}
	orderRepo := &repo.Orders{DB: gdb}
	e := &env{}
	e.products = &Products{Repo: &repo.Products{DB: gdb}, Cache: rc, TTL: time.Minute, Log: log}
	e.orders = &Orders{Repo: orderRepo, Products: e.products, Users: userRepo, TaxRate: pricing.DefaultTaxRate, Log: log}
	e.reviews = &Reviews{Repo: reviewRepo, Products: e.products}
	e.users = &Users{Repo: userRepo, Reviews: reviewRepo, Log: log}
	e.carts = &Carts{Products: e.products.Repo}
	e.admin = &Admin{Products: e.products, Users: userRepo, Orders: orderRepo, Log: log}

	var err error
	if e.buyer, err = e.users.Register(ctx, RegisterInput{Name: "Buyer", Email: "buyer@example.com", Password: "password1"}); err != nil {
		t.Fatalf("register buyer: %v", err)
	}
	if e.seller, err = e.users.Register(ctx, RegisterInput{Name: "Seller", Email: "seller@example.com", Password: "password1"}); err != nil {
		t.Fatalf("register seller: %v", err)
	}
	e.admUsr = models.User{Name: "Admin", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleAdmin, Active: true}
	if err := gdb.Create(&e.admUsr).Error; err != nil {
		t.Fatalf("admin: %v", err)
	}
	if e.addr, err = e.users.AddAddress(ctx, e.buyer.ID, AddressInput{Name: "Home", Street: "1 Elm", City: "Springfield", Country: "US", IsDefault: true}); err != nil {
		t.Fatalf("address: %v", err)
	}
	if e.card, err = e.users.AddPaymentMethod(ctx, e.buyer.ID, PaymentMethodInput{Type: "VISA", CardNumber: "4242 4242 4242 4242", NameOnCard: "Buyer", ExpirationDate: "12/30", IsDefault: true}); err != nil {
		t.Fatalf("card: %v", err)
	}
	for _, in := range []ProductInput{
		{Name: "Stethoscope", Description: "Dual head", PriceCents: 2000, Category: models.CategoryDiagnosticEquipment, Image: "https://img.example.com/s.webp", Quantity: 5},
		{Name: "Forceps", Description: "Steel", PriceCents: 999, Category: models.CategorySurgicalInstruments, Image: "https://img.example.com/f.webp", Quantity: 1},
	} {
		p, err := e.products.Create(ctx, &e.seller, in)
		if err != nil {
			t.Fatalf("product: %v", err)
		}
		e.items = append(e.items, p)
	}
	return e
}

func int64p(v int64) *int64 { return &v }

func TestOrdersCreate(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	in := CreateOrderInput{
		Items:           []ItemInput{{ProductID: e.items[0].ID, Quantity: 2}},
		AddressID:       e.addr.ID,
		PaymentMethodID: e.card.ID,
		DeliveryOption:  "express",
	}
	q, err := e.orders.Quote(ctx, QuoteInput{Items: in.Items, DeliveryOption: in.DeliveryOption})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 40.00 + 9.99 = 49.99; tax 3.324335 -> 3.32
	if q.SubtotalCents != 4999 || q.TaxCents != 332 || q.TotalCents != 5331 {
		t.Fatalf("quote = %+v", q)
	}

	in.TotalCents = int64p(q.TotalCents + 1)
	o, err := e.orders.Create(ctx, &e.buyer, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.TotalCents != 5331 || len(o.Items) != 1 || o.Items[0].PriceCents != 2000 || o.Status != models.OrderPending {
		t.Fatalf("order = %+v", o)
	}

	p, _ := e.products.Repo.Get(ctx, e.items[0].ID)
	if p.Quantity != 3 {
		t.Fatalf("stock = %d", p.Quantity)
	}
}

func TestOrdersCreateRejectsStaleTotals(t *testing.T) {
	e := newEnv(t, nil)
	in := CreateOrderInput{
		Items:           []ItemInput{{ProductID: e.items[1].ID, Quantity: 1}},
		AddressID:       e.addr.ID,
		PaymentMethodID: e.card.ID,
		DeliveryOption:  "standard",
		TotalCents:      int64p(999),
	}
	_, err := e.orders.Create(context.Background(), &e.buyer, in)
	var mismatch *QuoteMismatchError
	if !errors.As(err, &mismatch) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected quote mismatch, got %v", err)
	}
	if mismatch.Quote.TotalCents != 1065 {
		t.Fatalf("fresh total = %d", mismatch.Quote.TotalCents)
	}
}

func TestOrdersCreateChecks(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	base := CreateOrderInput{
		Items:           []ItemInput{{ProductID: e.items[1].ID, Quantity: 2}},
		AddressID:       e.addr.ID,
		PaymentMethodID: e.card.ID,
		DeliveryOption:  "standard",
	}

	if _, err := e.orders.Create(ctx, &e.buyer, base); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected out of stock conflict, got %v", err)
	}

	foreign := base
	foreign.Items = []ItemInput{{ProductID: e.items[1].ID, Quantity: 1}}
	if _, err := e.orders.Create(ctx, &e.seller, foreign); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	bad := foreign
	bad.DeliveryOption = "teleport"
	if _, err := e.orders.Create(ctx, &e.buyer, bad); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	empty := foreign
	empty.Items = nil
	if _, err := e.orders.Create(ctx, &e.buyer, empty); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	missing := foreign
	missing.Items = []ItemInput{{ProductID: 999, Quantity: 1}}
	if _, err := e.orders.Create(ctx, &e.buyer, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrdersDuplicateLinesCapped(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	id := e.items[0].ID

	cases := []struct {
		name  string
		items []ItemInput
		err   error
		qty   int
	}{
		{"folded within cap", []ItemInput{{ProductID: id, Quantity: 4}, {ProductID: id, Quantity: 6}}, nil, cart.MaxQuantity},
		{"folded over cap", []ItemInput{{ProductID: id, Quantity: 10}, {ProductID: id, Quantity: 10}}, ErrValidation, 0},
		{"one over cap", []ItemInput{{ProductID: id, Quantity: 3}, {ProductID: id, Quantity: 8}}, ErrValidation, 0},
	}
	for _, c := range cases {
		q, err := e.orders.Quote(ctx, QuoteInput{Items: c.items, DeliveryOption: "standard"})
		if c.err != nil {
			if !errors.Is(err, c.err) {
				t.Fatalf("%s: expected %v, got %v", c.name, c.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if q.ItemsCents != int64(c.qty)*e.items[0].PriceCents {
			t.Fatalf("%s: items = %d", c.name, q.ItemsCents)
		}
	}

	_, err := e.orders.Create(ctx, &e.buyer, CreateOrderInput{
		Items:           []ItemInput{{ProductID: id, Quantity: 10}, {ProductID: id, Quantity: 10}},
		AddressID:       e.addr.ID,
		PaymentMethodID: e.card.ID,
		DeliveryOption:  "standard",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("create: expected validation error, got %v", err)
	}
}

func TestOrdersGetAccess(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	o, err := e.orders.Create(ctx, &e.buyer, CreateOrderInput{
		Items:           []ItemInput{{ProductID: e.items[0].ID, Quantity: 1}},
		AddressID:       e.addr.ID,
		PaymentMethodID: e.card.ID,
		DeliveryOption:  "overnight",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := e.orders.Get(ctx, &e.seller, o.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := e.orders.Get(ctx, &e.admUsr, o.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := e.orders.Get(ctx, &e.buyer, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := e.orders.ToggleItem(ctx, &e.seller, o.Items[0].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden toggle, got %v", err)
	}
	it, err := e.orders.ToggleItem(ctx, &e.buyer, o.Items[0].ID)
	if err != nil || !it.Archived {
		t.Fatalf("toggle: %v %+v", err, it)
	}
	archived, _ := e.orders.List(ctx, e.buyer.ID, true)
	if len(archived) != 1 || !archived[0].Archived {
		t.Fatalf("archived = %+v", archived)
	}
}

func TestProductsCacheInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.New(mr.Addr())
	defer rc.Close()
	e := newEnv(t, rc)
	ctx := context.Background()

	first, err := e.products.Get(ctx, e.items[0].ID)
	if err != nil || first.Seller == nil || first.Seller.Name != "Seller" {
		t.Fatalf("get: %v %+v", err, first)
	}
	if !mr.Exists(keyProduct(e.items[0].ID)) {
		t.Fatalf("product not cached")
	}

	in := ProductInput{Name: "Stethoscope II", Description: "Dual head", PriceCents: 2500, Category: models.CategoryDiagnosticEquipment, Image: "https://img.example.com/s.webp", Quantity: 5}
	if _, err := e.products.UpdateListing(ctx, &e.buyer, e.items[0].ID, in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := e.products.UpdateListing(ctx, &e.seller, e.items[0].ID, in); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists(keyProduct(e.items[0].ID)) {
		t.Fatalf("stale cache entry kept")
	}
	again, _ := e.products.Get(ctx, e.items[0].ID)
	if again.Name != "Stethoscope II" || again.PriceCents != 2500 {
		t.Fatalf("after update = %+v", again)
	}
}

func TestProductsValidationAndSearch(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, err := e.products.Create(ctx, &e.seller, ProductInput{Name: "X", Description: "ok desc", Category: "TOYS", Image: "not a url"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	got, err := e.products.Search(ctx, "steel")
	if err != nil || len(got) != 1 || got[0].ID != e.items[1].ID {
		t.Fatalf("search: %v %+v", err, got)
	}
	sugg, _ := e.products.Suggestions(ctx, "")
	if len(sugg) != 0 {
		t.Fatalf("empty query suggestions = %v", sugg)
	}
	for i := 0; i < suggestLimit+3; i++ {
		in := ProductInput{Name: "Suture kit", Description: "Absorbable", PriceCents: 450, Category: models.CategorySurgicalInstruments, Image: "https://img.example.com/k.webp", Quantity: 3}
		if _, err := e.products.Create(ctx, &e.seller, in); err != nil {
			t.Fatalf("product: %v", err)
		}
	}
	if sugg, err := e.products.Suggestions(ctx, "suture"); err != nil || len(sugg) != suggestLimit {
		t.Fatalf("capped suggestions: %v %d", err, len(sugg))
	}
	byCat, err := e.products.ByCategory(ctx, models.CategorySurgicalInstruments)
	if err != nil || len(byCat) != 1 {
		t.Fatalf("by category: %v %d", err, len(byCat))
	}
}

func TestReviewsUpdateAverage(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	for _, r := range []int{4, 5} {
		if _, err := e.reviews.Create(ctx, &e.buyer, ReviewInput{ProductID: e.items[0].ID, Rating: r, Comment: "good"}); err != nil {
			t.Fatalf("review: %v", err)
		}
	}
	if _, err := e.reviews.Create(ctx, &e.buyer, ReviewInput{ProductID: e.items[0].ID, Rating: 6}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	v, err := e.products.Get(ctx, e.items[0].ID)
	if err != nil || v.Rating != 4.5 || v.ReviewCount != 2 || v.AverageRating != 4.5 {
		t.Fatalf("view = %+v (%v)", v, err)
	}
	list, _ := e.reviews.ForProduct(ctx, e.items[0].ID)
	if len(list) != 2 || list[0].User == nil || list[0].User.Name != "Buyer" {
		t.Fatalf("reviews = %+v", list)
	}
	prof, err := e.users.WithReviews(ctx, e.buyer.ID)
	if err != nil || len(prof.Reviews) != 2 || prof.Reviews[0].Product == nil {
		t.Fatalf("profile: %v %+v", err, prof)
	}
}

func TestUsersAuthAndAccess(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	if _, err := e.users.Register(ctx, RegisterInput{Name: "Again", Email: "BUYER@example.com", Password: "password1"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := e.users.Login(ctx, LoginInput{Email: "buyer@example.com", Password: "wrong"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if u, err := e.users.Login(ctx, LoginInput{Email: "buyer@example.com", Password: "password1"}); err != nil || u.ID != e.buyer.ID {
		t.Fatalf("login: %v", err)
	}

	upd := UpdateUserInput{Name: "Buyer Two", Email: "buyer2@example.com", Phone: "5551234567"}
	if _, err := e.users.Update(ctx, &e.seller, e.buyer.ID, upd); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := e.users.Update(ctx, &e.buyer, e.buyer.ID, UpdateUserInput{Name: "B", Email: "x", Phone: "12"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	u, err := e.users.Update(ctx, &e.admUsr, e.buyer.ID, upd)
	if err != nil || u.Email != "buyer2@example.com" {
		t.Fatalf("admin update: %v %+v", err, u)
	}

	if _, err := e.users.List(ctx, &e.buyer); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden list, got %v", err)
	}
	if _, err := e.users.Delete(ctx, &e.buyer, e.buyer.ID); err != nil {
		t.Fatalf("self delete: %v", err)
	}
	if _, err := e.users.Get(ctx, e.buyer.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCartsResolve(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	c := cart.Cart{}
	if err := e.carts.Add(ctx, c, e.items[0].ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := e.carts.Add(ctx, c, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	c[e.items[1].ID] = 2
	if _, err := e.products.DeleteListing(ctx, &e.seller, e.items[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	v, pruned, err := e.carts.Resolve(ctx, c)
	if err != nil || !pruned {
		t.Fatalf("resolve: %v pruned=%v", err, pruned)
	}
	if len(v.Lines) != 1 || v.ItemCount != 3 || v.SubtotalCents != 6000 || len(c) != 1 {
		t.Fatalf("view = %+v cart = %v", v, c)
	}
}

func TestAdminProducts(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	pg, err := e.admin.ListProducts(ctx, AdminProductQuery{SortBy: "price", SortDesc: true})
	if err != nil || pg.Count != 2 || pg.Products[0].ID != e.items[0].ID {
		t.Fatalf("list: %v %+v", err, pg)
	}
	if _, err := e.admin.ListProducts(ctx, AdminProductQuery{SortBy: "seller"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	next, err := e.admin.NextProduct(ctx, e.items[1].ID)
	if err != nil || next.ID != e.items[0].ID {
		t.Fatalf("next wrap: %v %d", err, next.ID)
	}

	in := AdminProductInput{
		ProductInput: ProductInput{Name: "Gauze", Description: "Sterile pads", PriceCents: 450, Category: models.CategoryPatientCareEssentials, Image: "https://img.example.com/g.webp", Quantity: 40},
		Rating:       4,
	}
	p, err := e.admin.CreateProduct(ctx, &e.admUsr, in)
	if err != nil || p.Rating != 4 || p.SellerID != e.admUsr.ID {
		t.Fatalf("create: %v %+v", err, p)
	}
}

func TestAdminOrderStatus(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	o, err := e.orders.Create(ctx, &e.buyer, CreateOrderInput{
		Items:           []ItemInput{{ProductID: e.items[0].ID, Quantity: 1}},
		AddressID:       e.addr.ID,
		PaymentMethodID: e.card.ID,
		DeliveryOption:  "standard",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := e.admin.UpdateOrderStatus(ctx, o.ID, StatusInput{Status: "LOST"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, err := e.admin.UpdateOrderStatus(ctx, o.ID, StatusInput{Status: models.OrderShipped})
	if err != nil || got.Status != models.OrderShipped {
		t.Fatalf("status: %v %+v", err, got)
	}
	n, _ := repo.PendingEvents(e.orders.Repo.DB)
	if n != 2 {
		t.Fatalf("outbox rows = %d", n)
	}

	pg, err := e.admin.ListOrders(ctx, AdminOrderQuery{})
	if err != nil || pg.Count != 1 || pg.Orders[0].User == nil {
		t.Fatalf("orders: %v %+v", err, pg)
	}
}
