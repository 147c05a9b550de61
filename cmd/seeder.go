package cmd

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			for _, table := range []string{"unmatched_callbacks", "transactions", "order_items", "orders", "cart_items", "product_tags", "products", "tags", "support_tickets", "users"} {
				if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

		adminID := seedUser(db, "admin@solatech.africa", "Amina", "Wanjiru", "254700000001", "admin", string(hash))
		providerID := seedUser(db, "provider@solatech.africa", "Joseph", "Otieno", "254700000002", "provider", string(hash))
		seedUser(db, "customer@solatech.africa", "Grace", "Mutiso", "254700000003", "customer", string(hash))

		_, err = db.Exec("UPDATE users SET is_approved = true WHERE id IN ($1, $2)", adminID, providerID)
		if err != nil {
			log.Fatalf("failed to approve seeded accounts: %v", err)
		}

		products := []struct {
			Name    string
			Short   string
			Wattage string
			Price   float64
			Stock   int
			Popular bool
			Tags    []string
		}{
			{"Solar Home Kit 50W", "Entry level lighting and phone charging", "50W", 7500, 40, true, []string{"home", "lighting"}},
			{"Solar Panel 200W Mono", "Monocrystalline rooftop panel", "200W", 14500, 25, true, []string{"panel"}},
			{"Solar Water Pump 370W", "Borehole pump for smallholder irrigation", "370W", 42000, 8, false, []string{"pump", "agriculture"}},
			{"LiFePO4 Battery 12V 100Ah", "Deep cycle storage battery", "", 38000, 12, false, []string{"storage"}},
			{"Hybrid Inverter 3kW", "Grid tie inverter with battery backup", "3000W", 65000, 5, false, []string{"inverter"}},
		}

		for _, p := range products {
			var productID int64
			err := db.QueryRow("SELECT id FROM products WHERE name = $1", p.Name).Scan(&productID)
			if err != nil {
				err = db.QueryRow(
					`INSERT INTO products (name, short_description, wattage, price, stock, is_popular, provider_id, created_at, updated_at)
					 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now()) RETURNING id`,
					p.Name, p.Short, p.Wattage, p.Price, p.Stock, p.Popular, providerID).Scan(&productID)
				if err != nil {
					log.Fatalf("failed to insert product %s: %v", p.Name, err)
				}
				fmt.Printf("Seeded product: %s\n", p.Name)
			}

			for _, tag := range p.Tags {
				var tagID int64
				if err := db.QueryRow("SELECT id FROM tags WHERE name = $1", tag).Scan(&tagID); err != nil {
					if err := db.QueryRow("INSERT INTO tags (name) VALUES ($1) RETURNING id", tag).Scan(&tagID); err != nil {
						log.Fatalf("failed to insert tag %s: %v", tag, err)
					}
				}
				var exists int
				if err := db.QueryRow("SELECT 1 FROM product_tags WHERE product_id = $1 AND tag_id = $2", productID, tagID).Scan(&exists); err != nil {
					if _, err := db.Exec("INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2)", productID, tagID); err != nil {
						log.Fatalf("failed to link tag %s: %v", tag, err)
					}
				}
			}
		}

		fmt.Println("Seeding complete")
	},
}

func seedUser(db *sqlx.DB, email, firstName, lastName, phone, role, hash string) int64 {
	var id int64
	if err := db.QueryRow("SELECT id FROM users WHERE email = $1", email).Scan(&id); err == nil {
		fmt.Printf("user %s already exists\n", email)
		return id
	}

	err := db.QueryRow(
		`INSERT INTO users (email, first_name, last_name, phone, role, password_hash, is_active, is_approved, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, true, $7, now(), now()) RETURNING id`,
		email, firstName, lastName, phone, role, hash, role != "provider").Scan(&id)
	if err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}

	fmt.Printf("Seeded %s user: %s\n", role, email)
	return id
}
