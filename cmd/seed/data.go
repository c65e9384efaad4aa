package main

import "github.com/mamadbah2/agritrade/internal/domain/models"

type seedCrop struct {
	name        string
	unit        models.Unit
	description string
	marketRate  float64
}

type seedPurchase struct {
	crop, farmer int
	quantity     float64
	rate         float64
	status       models.PaymentStatus
	day          int
	notes        string
}

type seedSale struct {
	crop          int
	buyer         string
	vehicleNumber string
	quantity      float64
	rate          float64
	status        models.PaymentStatus
	day           int
	notes         string
}

type seedExpense struct {
	day         int
	category    models.ExpenseCategory
	description string
	amount      float64
	crop        int // -1 for none
	notes       string
}

var sampleCrops = []seedCrop{
	{"MAIZE", models.UnitQuintal, "Yellow Maize", 2500},
	{"COTTON", models.UnitQuintal, "Cotton Seed", 6500},
	{"WHEAT", models.UnitQuintal, "Wheat Grain", 2800},
	{"BAJRA", models.UnitQuintal, "Pearl Millet", 2200},
	{"SOYBEAN", models.UnitQuintal, "Soybean Seed", 4500},
	{"SUGARCANE", models.UnitTon, "Sugarcane", 3500},
}

var sampleFarmers = []models.Farmer{
	{Name: "Ram Singh", Village: "Village A", Contact: "9876543210", Address: "Near Temple, Village A", Notes: "Regular supplier"},
	{Name: "Shyam Kumar", Village: "Village B", Contact: "9876543211", Address: "Main Road, Village B", Notes: "Good quality crops"},
	{Name: "Mohan Lal", Village: "Village C", Contact: "9876543212", Address: "Behind School, Village C", Notes: "Bulk supplier"},
	{Name: "Suresh Patel", Village: "Village D", Contact: "9876543213", Address: "Near Market, Village D", Notes: "Organic farmer"},
	{Name: "Rajesh Gupta", Village: "Village E", Contact: "9876543214", Address: "Farm House, Village E", Notes: "Premium quality"},
}

// Days are offsets from the seed start date.
var samplePurchases = []seedPurchase{
	{0, 0, 50, 2400, models.PaymentPaid, 0, "Good quality maize"},
	{1, 1, 30, 6300, models.PaymentPending, 1, "Premium cotton"},
	{2, 2, 40, 2700, models.PaymentPaid, 2, "Fresh wheat"},
	{0, 3, 25, 2450, models.PaymentPaid, 3, "Organic maize"},
	{4, 4, 35, 4400, models.PaymentPending, 4, "High protein soybean"},
}

var sampleSales = []seedSale{
	{0, "ABC Industries", "MH12AB1234", 30, 2600, models.PaymentPaid, 5, "Bulk order"},
	{1, "XYZ Textiles", "MH12CD5678", 20, 6600, models.PaymentPending, 6, "Export quality"},
	{2, "DEF Mills", "MH12EF9012", 25, 2900, models.PaymentPaid, 7, "Flour mill order"},
	{0, "GHI Feed Company", "MH12GH3456", 20, 2550, models.PaymentPaid, 8, "Animal feed"},
}

var sampleExpenses = []seedExpense{
	{0, models.ExpenseTransport, "Truck rental for maize transport", 2500, 0, "Village A to warehouse"},
	{1, models.ExpenseLabor, "Loading and unloading charges", 1500, -1, "Cotton loading"},
	{2, models.ExpenseStorage, "Warehouse rent", 3000, -1, "Monthly warehouse rent"},
	{3, models.ExpenseTransport, "Fuel charges", 2000, -1, "Delivery to buyer"},
	{4, models.ExpenseOther, "Miscellaneous expenses", 1000, -1, "Office supplies"},
}
