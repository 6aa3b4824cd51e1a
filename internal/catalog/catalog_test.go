package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/schedule"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type sampleCatalog struct {
	snapshot *Catalog
	burgers  Category
	drinks   Category
	burger   Product
	soda     Product
	loose    Product
	bread    ExtrasGroup
	sauces   ExtrasGroup
}

func newSample() sampleCatalog {
	s := sampleCatalog{
		burgers: Category{ID: uuid.New(), Name: "Burgers", Icon: enums.CategoryIconSandwich, Position: 0},
		drinks:  Category{ID: uuid.New(), Name: "Drinks", Icon: enums.CategoryIconCupSoda, Position: 1},
	}
	s.burger = Product{ID: uuid.New(), CategoryID: &s.burgers.ID, Name: "X-Burger", Price: decimal.RequireFromString("25.00"), InStock: true, Highlighted: true, TrackStock: true, StockQuantity: 3}
	s.soda = Product{ID: uuid.New(), CategoryID: &s.drinks.ID, Name: "Soda", Price: decimal.RequireFromString("6.00"), InStock: true, TrackStock: true, StockQuantity: 0}
	s.loose = Product{ID: uuid.New(), Name: "Napkin", Price: decimal.Zero, InStock: false}

	breadID, saucesID := uuid.New(), uuid.New()
	s.bread = ExtrasGroup{ID: breadID, Name: "Bread", MinSelection: 1, MaxSelection: 1, Options: []ExtraOption{
		{ID: uuid.New(), GroupID: breadID, Name: "Brioche", Price: decimal.Zero, MaxQuantity: 1},
	}}
	s.sauces = ExtrasGroup{ID: saucesID, Name: "Sauces", MaxSelection: 3, Options: []ExtraOption{
		{ID: uuid.New(), GroupID: saucesID, Name: "Garlic", Price: decimal.RequireFromString("1.50"), MaxQuantity: 2},
	}}

	s.snapshot = New(Catalog{
		Products:     []Product{s.burger, s.soda, s.loose},
		Categories:   []Category{s.burgers, s.drinks},
		ExtrasGroups: []ExtrasGroup{s.bread, s.sauces},
		Links: []ProductExtraLink{
			{ProductID: s.burger.ID, GroupID: s.sauces.ID},
			{ProductID: s.burger.ID, GroupID: s.bread.ID},
		},
		StoreConfig: StoreConfig{Name: "Lanchonete", CardCreditFeePercent: decimal.RequireFromString("4.99")},
		DeliveryFees: []DeliveryFee{
			{ID: uuid.New(), Neighborhood: "Jardim América", Fee: decimal.RequireFromString("8.00"), IsActive: true},
			{ID: uuid.New(), Neighborhood: "Centro", Fee: decimal.RequireFromString("5.00"), IsActive: false},
		},
		Hours: []schedule.Hours{{DayOfWeek: time.Monday, Closed: true}},
	})
	return s
}

func TestCatalogLookups(t *testing.T) {
	t.Parallel()

	s := newSample()

	got, ok := s.snapshot.Product(s.soda.ID)
	if !ok || got.Name != "Soda" {
		t.Fatalf("expected soda, got %+v", got)
	}
	if _, ok := s.snapshot.Product(uuid.New()); ok {
		t.Fatal("expected unknown product to be missing")
	}

	groups := s.snapshot.GroupsForProduct(s.burger.ID)
	if len(groups) != 2 || groups[0].ID != s.bread.ID || groups[1].ID != s.sauces.ID {
		t.Fatalf("expected linked groups in group order, got %+v", groups)
	}
	if len(s.snapshot.GroupsForProduct(s.soda.ID)) != 0 {
		t.Fatal("expected unlinked product to have no groups")
	}
	if _, ok := s.snapshot.Group(s.sauces.ID); !ok {
		t.Fatal("expected sauces group")
	}
	if len(s.snapshot.OpeningHours()) != 1 {
		t.Fatal("expected opening hours to be exposed")
	}
}

func TestCatalogLazyIndex(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	c := &Catalog{Products: []Product{{ID: id, Name: "Late"}}}
	if _, ok := c.Product(id); !ok {
		t.Fatal("expected lookup to build the index on demand")
	}
}

func TestActiveDeliveryFee(t *testing.T) {
	t.Parallel()

	s := newSample()
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "Jardim América", want: "8", ok: true},
		{input: "  jardim   AMERICA ", want: "8", ok: true},
		{input: "Centro"},
		{input: "Unknown"},
		{input: ""},
	}
	for _, tc := range cases {
		fee, ok := s.snapshot.ActiveDeliveryFee(tc.input)
		if ok != tc.ok {
			t.Fatalf("%q: expected ok=%v", tc.input, tc.ok)
		}
		if ok && !fee.Fee.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%q: expected fee %s got %s", tc.input, tc.want, fee.Fee)
		}
	}
}

func TestNormalizeNeighborhood(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"São José":           "sao jose",
		"  Vila   Nova  ":    "vila nova",
		"JARDIM PAULISTÂNIA": "jardim paulistania",
		"":                   "",
	}
	for input, want := range cases {
		if got := NormalizeNeighborhood(input); got != want {
			t.Fatalf("NormalizeNeighborhood(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSurchargePercent(t *testing.T) {
	t.Parallel()

	cfg := StoreConfig{CardDebitFeePercent: decimal.RequireFromString("1.5"), CardCreditFeePercent: decimal.RequireFromString("3")}
	if !cfg.SurchargePercent(enums.PaymentMethodDebitCard).Equal(decimal.RequireFromString("1.5")) {
		t.Fatal("unexpected debit percent")
	}
	if !cfg.SurchargePercent(enums.PaymentMethodCreditCard).Equal(decimal.RequireFromString("3")) {
		t.Fatal("unexpected credit percent")
	}
	if !cfg.SurchargePercent(enums.PaymentMethodPix).IsZero() || !cfg.SurchargePercent(enums.PaymentMethodCash).IsZero() {
		t.Fatal("expected no surcharge for pix and cash")
	}
}

func TestBuildMenu(t *testing.T) {
	t.Parallel()

	s := newSample()
	menu := BuildMenu(s.snapshot, func(p Product) bool { return p.TrackStock && p.StockQuantity < 5 })

	if menu.StoreName != "Lanchonete" {
		t.Fatalf("unexpected store name %q", menu.StoreName)
	}
	if len(menu.Sections) != 3 {
		t.Fatalf("expected burgers, drinks and uncategorized sections, got %d", len(menu.Sections))
	}
	if menu.Sections[0].Category.ID != s.burgers.ID || menu.Sections[1].Category.ID != s.drinks.ID || menu.Sections[2].Category != nil {
		t.Fatalf("unexpected section order: %+v", menu.Sections)
	}

	burger := menu.Sections[0].Products[0]
	if !burger.Available || !burger.LowStock || len(burger.ExtrasGroups) != 2 {
		t.Fatalf("unexpected burger projection: %+v", burger)
	}
	soda := menu.Sections[1].Products[0]
	if soda.Available || !soda.LowStock {
		t.Fatalf("expected sold out soda to be unavailable: %+v", soda)
	}
	napkin := menu.Sections[2].Products[0]
	if napkin.Available || napkin.LowStock {
		t.Fatalf("expected napkin to be unavailable but not low stock: %+v", napkin)
	}
	if len(menu.Highlights) != 1 || menu.Highlights[0].ID != s.burger.ID {
		t.Fatalf("unexpected highlights: %+v", menu.Highlights)
	}
}
