package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

func TestLoadSeedFile(t *testing.T) {
	f, err := loadSeedFile(filepath.Join("..", "..", "configs", "seed_orders.yaml"))
	if err != nil {
		t.Fatalf("loadSeedFile: %v", err)
	}
	if len(f.Orders) != 3 {
		t.Fatalf("loaded %d orders, want 3", len(f.Orders))
	}

	want := seedOrder{
		OrderMaster: models.OrderMaster{
			OrderID:        1001,
			CustomerID:     501,
			DeliveryStatus: "delivered",
			PaymentStatus:  "paid",
			TotalAmount:    50,
			DeliveryDate:   "2026-10-01",
		},
		Items: []models.OrderItem{{ProductName: "Ceramic Vase", Quantity: 1, PricePerUnit: 50}},
	}
	if diff := cmp.Diff(want, f.Orders[0]); diff != "" {
		t.Errorf("first order mismatch (-want +got):\n%s", diff)
	}
	if len(f.Orders[1].Items) != 2 {
		t.Errorf("order 1002 has %d items, want 2", len(f.Orders[1].Items))
	}
}

func TestLoadSeedFileRejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("orders:\n  - customer_id: 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadSeedFile(path); err == nil || !strings.Contains(err.Error(), "order_id") {
		t.Errorf("expected missing order_id error, got %v", err)
	}
}
