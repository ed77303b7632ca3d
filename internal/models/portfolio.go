package models

// GuestAccountID is the sentinel id of the single synthetic account used
// when no authenticated session exists.
const GuestAccountID int64 = -1

// Category is the closed set of asset classes a position can belong to.
type Category string

const (
	CategoryStock     Category = "Stock"
	CategoryBond      Category = "Bond"
	CategoryCommodity Category = "Commodity"
	CategoryCash      Category = "Cash"
	CategoryOther     Category = "Other"
)

// Action is the rebalancing direction derived from action_quantity.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Asset is one position within an account. The raw fields are editable;
// the derived fields are recomputed from raw fields and account totals on
// every mutation and are never a source of truth.
type Asset struct {
	ID        int64    `json:"id"`
	AccountID int64    `json:"account_id"`
	Name      string   `json:"name"`
	Code      string   `json:"code,omitempty"`
	Category  Category `json:"category"`

	TargetWeight float64 `json:"target_weight"`
	CurrentPrice float64 `json:"current_price"`
	AvgPrice     float64 `json:"avg_price"`
	Quantity     float64 `json:"quantity"`

	CurrentValue   float64 `json:"current_value"`
	InvestedAmount float64 `json:"invested_amount"`
	PLAmount       float64 `json:"pl_amount"`
	PLRate         float64 `json:"pl_rate"`
	CurrentWeight  float64 `json:"current_weight"`
	TargetValue    float64 `json:"target_value"`
	DiffValue      float64 `json:"diff_value"`
	Action         Action  `json:"action"`
	ActionQuantity int64   `json:"action_quantity"`
}

// Account is a named container of cash plus assets. The four total fields
// are derived and recomputed alongside the assets' derived fields.
type Account struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Cash   float64 `json:"cash"`
	Assets []Asset `json:"assets"`

	TotalAssetValue    float64 `json:"total_asset_value"`
	TotalInvestedValue float64 `json:"total_invested_value"`
	TotalPLAmount      float64 `json:"total_pl_amount"`
	TotalPLRate        float64 `json:"total_pl_rate"`
}

// User is an authenticated owner of accounts.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}
