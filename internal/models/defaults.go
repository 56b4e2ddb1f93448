package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const defaultValidityDays = 200

var defaultTiers = []struct {
	price, profit int64
	image         string
}{
	{1000, 200, "https://images.unsplash.com/photo-1614850523296-d8c1af93d400?q=80&w=400&auto=format&fit=crop"},
	{5000, 1100, "https://images.unsplash.com/photo-1614850523459-c2f4c699c52e?q=80&w=400&auto=format&fit=crop"},
	{15000, 3500, "https://images.unsplash.com/photo-1614850523598-81148400c731?q=80&w=400&auto=format&fit=crop"},
	{30000, 7500, "https://images.unsplash.com/photo-1614851012101-8378393521d6?q=80&w=400&auto=format&fit=crop"},
	{60000, 15500, "https://images.unsplash.com/photo-1557683311-eac922347aa1?q=80&w=400&auto=format&fit=crop"},
	{120000, 33000, "https://images.unsplash.com/photo-1557683316-973673baf926?q=80&w=400&auto=format&fit=crop"},
	{240000, 70000, "https://images.unsplash.com/photo-1557682250-33bd709cbe85?q=80&w=400&auto=format&fit=crop"},
	{480000, 160000, "https://images.unsplash.com/photo-1557682224-5b8590cd9ec5?q=80&w=400&auto=format&fit=crop"},
	{960000, 380000, "https://images.unsplash.com/photo-1557682260-96773eb01377?q=80&w=400&auto=format&fit=crop"},
	{1800000, 800000, "https://images.unsplash.com/photo-1579546929518-9e396f3cc809?q=80&w=400&auto=format&fit=crop"},
	{3500000, 1500000, "https://images.unsplash.com/photo-1579546929662-711aa81148cf?q=80&w=400&auto=format&fit=crop"},
}

// DefaultVIPLevels returns the catalog a fresh store is seeded with.
func DefaultVIPLevels() []VIPLevel {
	levels := make([]VIPLevel, 0, len(defaultTiers))
	for i, t := range defaultTiers {
		level := i + 1
		levels = append(levels, VIPLevel{
			Level:        level,
			Name:         fmt.Sprintf("VIP %d", level),
			Price:        decimal.NewFromInt(t.price),
			DailyProfit:  decimal.NewFromInt(t.profit),
			TasksPerDay:  1,
			ValidityDays: defaultValidityDays,
			ImageURL:     t.image,
		})
	}
	return levels
}
