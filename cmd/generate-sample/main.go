package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"moneyminder/internal/core"
)

// profile describes how spending in one category looks in the sample data.
type profile struct {
	category  core.Category
	merchants []string
	items     []string
	minAmount float64
	maxAmount float64
}

var profiles = []profile{
	{
		category:  core.CategoryFood,
		merchants: []string{"Whole Foods", "Trader Joe's", "Chipotle", "Olive Garden", "Starbucks"},
		items:     []string{"groceries", "lunch", "dinner", "coffee", "weekly shop"},
		minAmount: 4, maxAmount: 120,
	},
	{
		category:  core.CategoryShopping,
		merchants: []string{"Amazon", "Target", "Nike", "Best Buy"},
		items:     []string{"household items", "clothes", "shoes", "electronics"},
		minAmount: 10, maxAmount: 300,
	},
	{
		category:  core.CategoryEntertainment,
		merchants: []string{"Netflix", "Spotify", "AMC Theatres", "Steam"},
		items:     []string{"subscription", "movie tickets", "game purchase"},
		minAmount: 5, maxAmount: 80,
	},
	{
		category:  core.CategoryTransport,
		merchants: []string{"Shell", "Uber", "Metro Transit", "Delta"},
		items:     []string{"gas", "ride", "monthly pass", "flight"},
		minAmount: 3, maxAmount: 250,
	},
	{
		category:  core.CategoryUtilities,
		merchants: []string{"ConEdison", "Comcast", "Verizon"},
		items:     []string{"electricity bill", "internet bill", "phone bill"},
		minAmount: 30, maxAmount: 180,
	},
	{
		category:  core.CategoryHealth,
		merchants: []string{"CVS", "Walgreens", "City Gym"},
		items:     []string{"pharmacy", "vitamins", "gym membership"},
		minAmount: 8, maxAmount: 150,
	},
}

func main() {
	out := flag.String("out", "sample_transactions.csv", "output CSV file")
	count := flag.Int("count", 200, "number of transactions to generate")
	days := flag.Int("days", 90, "spread transactions over the last N days")
	seed := flag.Int64("seed", 42, "random seed, fixed for reproducible samples")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	end := time.Now().UTC().Truncate(24 * time.Hour)

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", *out, err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "description", "category", "amount", "merchant"}); err != nil {
		fmt.Fprintf(os.Stderr, "write header: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *count; i++ {
		p := profiles[rng.Intn(len(profiles))]
		merchant := p.merchants[rng.Intn(len(p.merchants))]
		item := p.items[rng.Intn(len(p.items))]
		amount := p.minAmount + rng.Float64()*(p.maxAmount-p.minAmount)
		date := end.AddDate(0, 0, -rng.Intn(*days))

		record := []string{
			date.Format("2006-01-02"),
			item + " at " + merchant,
			string(p.category),
			strconv.FormatFloat(amount, 'f', 2, 64),
			merchant,
		}
		if err := w.Write(record); err != nil {
			fmt.Fprintf(os.Stderr, "write row %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "flush: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d transactions to %s\n", *count, *out)
}
