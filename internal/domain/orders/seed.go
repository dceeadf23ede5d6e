package orders

import "time"

type SeedData struct {
	Users  []User
	Orders []Order
}

// The demo users own the seed orders. The default logins are built from them.
var (
	DemoAdmin   = User{ID: "user-admin", Username: "admin", DisplayName: "Administrator", Role: RoleAdmin}
	DemoAnalyst = User{ID: "user-analyst", Username: "user", DisplayName: "Analyst", Role: RoleUser}
)

// Seed returns the demo users and orders relative to now.
func Seed(now time.Time) SeedData {
	admin, analyst := DemoAdmin, DemoAnalyst
	day := 24 * time.Hour

	return SeedData{
		Users: []User{admin, analyst},
		Orders: []Order{
			{
				ID:              "order-1",
				Title:           "Network refresh",
				Status:          StatusPending,
				CreatedAt:       now.Add(-3 * day),
				UpdatedAt:       now.Add(-1 * day),
				CreatedByUserID: admin.ID,
				Items: []OrderItem{
					{ID: "item-1", OrderID: "order-1", Name: "Firewall appliance", Quantity: 2, Price: 1200},
					{ID: "item-2", OrderID: "order-1", Name: "Switch stack", Quantity: 4, Price: 750},
				},
			},
			{
				ID:              "order-2",
				Title:           "SOC tooling uplift",
				Status:          StatusApproved,
				CreatedAt:       now.Add(-10 * day),
				UpdatedAt:       now.Add(-2 * day),
				CreatedByUserID: analyst.ID,
				Items: []OrderItem{
					{ID: "item-3", OrderID: "order-2", Name: "SIEM license", Quantity: 50, Price: 15},
					{ID: "item-4", OrderID: "order-2", Name: "SOAR playbook build", Quantity: 1, Price: 5500},
				},
			},
		},
	}
}
