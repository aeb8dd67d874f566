package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/config"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/repository"
)

type seedOrder struct {
	models.OrderMaster `yaml:",inline"`
	Items              []models.OrderItem `yaml:"items"`
}

type seedFile struct {
	Orders []seedOrder `yaml:"orders"`
}

func loadSeedFile(path string) (seedFile, error) {
	var f seedFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, o := range f.Orders {
		if o.OrderID <= 0 {
			return f, fmt.Errorf("parse %s: order without order_id", path)
		}
	}
	return f, nil
}

func openDatabase(ctx context.Context) (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func runMigrate(ctx context.Context) error {
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return repository.InitDB(ctx, db)
}

func runSeed(ctx context.Context, path string) error {
	f, err := loadSeedFile(path)
	if err != nil {
		return err
	}
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.InitDB(ctx, db); err != nil {
		return err
	}
	store := repository.NewPostgresOrderStore(db)
	for _, o := range f.Orders {
		if err := store.UpsertOrder(ctx, o.OrderMaster, o.Items); err != nil {
			return fmt.Errorf("seed order %d: %w", o.OrderID, err)
		}
	}
	fmt.Printf("seeded %d orders\n", len(f.Orders))
	return nil
}
