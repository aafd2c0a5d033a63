package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookwormapp/bookworm-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Bookworm/data/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	if data, ok := readBlob(db, "instance"); ok {
		var inst domain.Instance
		if err := json.Unmarshal(data, &inst); err != nil {
			log.Printf("Error reading instance: %v", err)
		} else {
			fmt.Printf("Instance: %s\n", inst.Name)
			fmt.Printf("  ID: %s\n", inst.ID)
			fmt.Printf("  Created: %s\n", inst.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Println()
		}
	}

	var records []domain.BookRecord
	if data, ok := readBlob(db, "library:books"); ok {
		if err := json.Unmarshal(data, &records); err != nil {
			log.Fatalf("Error reading book records: %v", err)
		}
	}

	rated := 0
	shelves := make(map[string]int)
	sources := make(map[string]int)
	for _, rec := range records {
		if rec.Rated() {
			rated++
		}
		shelves[rec.Shelf]++
		sources[rec.Source]++
	}

	for i, rec := range records {
		if i >= 3 {
			fmt.Printf("... and %d more records\n", len(records)-3)
			break
		}
		fmt.Printf("Record: %s\n", rec.Title)
		fmt.Printf("  Key: %s\n", rec.Key)
		fmt.Printf("  Author: %s\n", rec.Author)
		fmt.Printf("  Rating: %d  Shelf: %s  Source: %s\n", rec.Rating, rec.Shelf, rec.Source)
		fmt.Println()
	}

	var shown []string
	if data, ok := readBlob(db, "library:shown"); ok {
		if err := json.Unmarshal(data, &shown); err != nil {
			log.Printf("Error reading shown set: %v", err)
		}
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total records: %d\n", len(records))
	fmt.Printf("Rated records: %d\n", rated)
	for shelf, n := range shelves {
		fmt.Printf("  shelf %s: %d\n", shelf, n)
	}
	for source, n := range sources {
		fmt.Printf("  source %s: %d\n", source, n)
	}
	fmt.Printf("Shown recommendations: %d\n", len(shown))
}

func readBlob(db *badger.DB, key string) ([]byte, bool) {
	var data []byte
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err == nil
}
