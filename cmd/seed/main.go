// Command seed resets the database to a demo catalog.
//
//	seed          truncate, then seed
//	seed clear    truncate only
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gorm.io/gorm"

	"grove/internal/config"
	"grove/internal/db"
	"grove/internal/logger"
	"grove/internal/models"
	"grove/internal/pricing"
	"grove/internal/repo"
)

type seedUser struct {
	name, email, password string
	role                  models.Role
}

type seedProduct struct {
	name, description string
	priceCents        int64
}

var users = []seedUser{
	{"Dr. John Doe", "john@hospital.com", "password123", models.RoleUser},
	{"Nurse Jane Smith", "jane@hospital.com", "password456", models.RoleUser},
	{"Admin User", "admin@hospital.com", "adminpass", models.RoleAdmin},
}

var catalog = map[models.Category][]seedProduct{
	models.CategoryDiagnosticEquipment: {
		{"Advanced Stethoscope", "High-quality acoustic stethoscope for accurate auscultation", 8999},
		{"Digital Blood Pressure Monitor", "Automatic blood pressure monitor for home and clinical use", 5999},
		{"Pulse Oximeter", "Fingertip pulse oximeter for measuring blood oxygen saturation", 3999},
		{"Infrared Thermometer", "Non-contact infrared thermometer for quick temperature readings", 2999},
		{"Portable ECG Monitor", "Compact ECG monitor for heart rhythm analysis", 29999},
	},
	models.CategorySurgicalInstruments: {
		{"Surgical Scissors Set", "Set of stainless steel surgical scissors for various procedures", 7999},
		{"Precision Scalpel Set", "Set of surgical scalpels with various blade sizes", 4999},
		{"Surgical Forceps Collection", "Assorted surgical forceps for tissue handling", 8999},
		{"Needle Holder Set", "Set of tungsten carbide needle holders for suturing", 6999},
		{"Surgical Loupes", "Magnifying loupes for precision surgical procedures", 39999},
	},
	models.CategoryPersonalProtectiveEquipment: {
		{"N95 Respirator Masks", "Pack of 10 N95 respirator masks for superior protection", 2499},
		{"Disposable Nitrile Gloves", "Box of 100 disposable nitrile gloves", 1499},
		{"Face Shields", "Pack of 5 full-face protective shields", 1999},
		{"Safety Goggles", "Anti-fog safety goggles for eye protection", 1299},
		{"Surgical Caps", "Pack of 50 disposable surgical caps", 799},
	},
	models.CategoryPatientCareEssentials: {
		{"Adjustable Hospital Bed", "Electric adjustable hospital bed for patient comfort", 49999},
		{"Wheelchair", "Foldable wheelchair for patient mobility", 19999},
		{"IV Stand", "Adjustable IV stand with multiple hooks", 7999},
		{"Nebulizer System", "Compact nebulizer system for respiratory treatments", 4999},
		{"Pressure Relief Cushion", "Pressure relief cushion for patient comfort and prevention", 5999},
	},
}

var qualities = []string{"excellent", "good", "satisfactory"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("grove-seed", cfg.Common.LogLevel)

	gdb, err := db.Open(cfg.Postgres.DSN, log, cfg.Postgres.SlowQuery)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	if err := truncate(gdb); err != nil {
		log.Fatal().Err(err).Msg("clear failed")
	}
	log.Info().Msg("data cleared")
	if len(os.Args) > 1 && os.Args[1] == "clear" {
		return
	}

	if err := seed(context.Background(), gdb, rand.New(rand.NewPCG(42, 7))); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Int("users", len(users)).Msg("data seeded")
}

func truncate(gdb *gorm.DB) error {
	tables := []string{"outbox_events", "reviews", "order_items", "orders", "payment_methods", "addresses", "products", "users"}
	return gdb.Exec("TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE").Error
}

func seed(ctx context.Context, gdb *gorm.DB, rnd *rand.Rand) error {
	var created []models.User
	for _, su := range users {
		hash, err := models.HashPassword(su.password)
		if err != nil {
			return err
		}
		u := models.User{Name: su.name, Email: su.email, PasswordHash: hash, Role: su.role, Active: true}
		if err := gdb.Create(&u).Error; err != nil {
			return fmt.Errorf("user %s: %w", su.email, err)
		}
		created = append(created, u)
	}

	var products []models.Product
	for _, cat := range models.Categories {
		for _, sp := range catalog[cat] {
			p := models.Product{
				SellerID:    created[rnd.IntN(len(created))].ID,
				Name:        sp.name,
				Description: sp.description,
				PriceCents:  sp.priceCents,
				Category:    cat,
				Image:       "https://media.grove.example/products/" + slug(sp.name) + ".webp",
				Quantity:    rnd.IntN(50) + 10,
			}
			if err := gdb.Create(&p).Error; err != nil {
				return fmt.Errorf("product %s: %w", sp.name, err)
			}
			products = append(products, p)
		}
	}

	usersRepo := &repo.Users{DB: gdb}
	ordersRepo := &repo.Orders{DB: gdb}
	for _, u := range created {
		a := models.Address{
			UserID: u.ID, Name: u.Name + "'s Work Address", Street: "123 Hospital St",
			City: "Medical City", State: "HC", ZipCode: "12345", Country: "USA", IsDefault: true,
		}
		if err := usersRepo.AddAddress(ctx, &a); err != nil {
			return err
		}
		pm := models.PaymentMethod{
			UserID: u.ID, Type: "Credit Card", CardNumber: "4111111111111111",
			NameOnCard: u.Name, ExpirationDate: "12/2030", IsDefault: true,
		}
		if err := usersRepo.AddPaymentMethod(ctx, &pm); err != nil {
			return err
		}

		var lines []pricing.Line
		for _, p := range products[:3] {
			lines = append(lines, pricing.Line{ProductID: p.ID, PriceCents: p.PriceCents, Quantity: rnd.IntN(3) + 1})
		}
		q, err := pricing.Compute(lines, "standard", pricing.DefaultTaxRate)
		if err != nil {
			return err
		}
		o := models.Order{
			UserID: u.ID, AddressID: &a.ID, PaymentMethodID: &pm.ID,
			Status: models.OrderDelivered, DeliveryOption: q.Delivery.ID,
			ItemsCents: q.ItemsCents, ShippingCents: q.ShippingCents, TaxCents: q.TaxCents, TotalCents: q.TotalCents,
		}
		for _, l := range lines {
			o.Items = append(o.Items, models.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, PriceCents: l.PriceCents})
		}
		if err := ordersRepo.Create(ctx, &o); err != nil {
			return fmt.Errorf("order for %s: %w", u.Email, err)
		}
	}

	reviews := &repo.Reviews{DB: gdb}
	for _, p := range products {
		author := created[rnd.IntN(len(created))]
		rv := models.Review{
			ProductID: p.ID,
			UserID:    author.ID,
			Rating:    rnd.IntN(5) + 1,
			Comment: fmt.Sprintf("This %s is essential for our medical practice. Quality is %s.",
				p.Name, qualities[rnd.IntN(len(qualities))]),
		}
		if _, err := reviews.Create(ctx, &rv); err != nil {
			return fmt.Errorf("review for %s: %w", p.Name, err)
		}
	}
	return nil
}

func slug(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "-"))
}
