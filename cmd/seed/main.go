package main

import (
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jayavardhan-g/govt-schemes/rules"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type sampleScheme struct {
	title       string
	description string
	state       string
	sourceURL   string
}

var sampleSchemes = []sampleScheme{
	{
		title:       "Young Farmers Support Scheme",
		description: "Support scheme for farmers aged between 18 and 35 with annual income below 500000",
		state:       "Karnataka",
		sourceURL:   "https://gov.example/young-farmers",
	},
	{
		title:       "Senior Citizens Health Aid",
		description: "Health aid for citizens above 60 years with low income",
		state:       "Maharashtra",
		sourceURL:   "https://gov.example/senior-health",
	},
	{
		title:       "Women Entrepreneur Grant",
		description: "Grant for women entrepreneurs with household income below 800000",
		state:       "Karnataka",
		sourceURL:   "https://gov.example/women-entrepreneur",
	},
}

// Seeds the sample schemes and derives an eligibility rule for each by
// running the extractor over its description. A non-empty schemes table
// is left untouched.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schemes").Scan(&count); err != nil {
		log.Fatalf("Failed to count schemes: %v", err)
	}
	if count > 0 {
		log.Printf("Schemes table already has %d rows, nothing to do", count)
		return
	}

	schemeStore := rules.NewPostgresSchemeStore(db)
	ruleStore := rules.NewPostgresRuleStore(db)
	extractor := rules.NewExtractor()

	for _, sample := range sampleSchemes {
		now := time.Now()
		scheme := &rules.Scheme{
			ID:          uuid.NewString(),
			Title:       sample.title,
			State:       sample.state,
			Description: sample.description,
			SourceURL:   sample.sourceURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := schemeStore.Add(scheme); err != nil {
			log.Fatalf("Failed to insert scheme %q: %v", sample.title, err)
		}

		result := extractor.Extract(sample.description)
		if result.Confidence == 0 {
			log.Printf("No conditions extracted for %q, skipping rule", sample.title)
			continue
		}

		rule := &rules.Rule{
			ID:         uuid.NewString(),
			SchemeID:   scheme.ID,
			Kind:       rules.KindTree,
			Tree:       result.Tree,
			Snippet:    sample.description,
			Confidence: result.Confidence,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := ruleStore.Add(rule); err != nil {
			log.Fatalf("Failed to insert rule for %q: %v", sample.title, err)
		}

		log.Printf("Seeded %q with %d extracted conditions", sample.title, len(result.Tree.All))
	}

	log.Println("Seeding complete")
}
