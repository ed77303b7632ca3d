package models

// ErrorResponse is the standard error body returned by the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RegisterRequest creates a new user
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest exchanges credentials for a token pair
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new access token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse carries issued tokens. RefreshToken is empty on refresh
// responses, which only rotate the access token.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// CreateAccountRequest creates a named account
type CreateAccountRequest struct {
	Name string  `json:"name" binding:"required"`
	Cash float64 `json:"cash"`
}

// UpdateAccountRequest patches an account. Nil fields are left untouched.
type UpdateAccountRequest struct {
	Name *string  `json:"name,omitempty"`
	Cash *float64 `json:"cash,omitempty"`
}

// CreateAssetRequest creates an asset within an account
type CreateAssetRequest struct {
	AccountID int64    `json:"account_id" binding:"required"`
	Name      string   `json:"name"`
	Category  Category `json:"category"`
}

// AssetPatch is a partial update of an asset's raw fields. Nil fields are
// left untouched.
type AssetPatch struct {
	Name         *string   `json:"name,omitempty"`
	Code         *string   `json:"code,omitempty"`
	Category     *Category `json:"category,omitempty"`
	TargetWeight *float64  `json:"target_weight,omitempty"`
	CurrentPrice *float64  `json:"current_price,omitempty"`
	AvgPrice     *float64  `json:"avg_price,omitempty"`
	Quantity     *float64  `json:"quantity,omitempty"`
}

// ExecuteTradeRequest applies a buy or sell at the given price. Positive
// quantity buys, negative sells.
type ExecuteTradeRequest struct {
	AssetID        int64   `json:"asset_id" binding:"required"`
	ActionQuantity int64   `json:"action_quantity" binding:"required"`
	Price          float64 `json:"price" binding:"required"`
}

// UpdateAllPricesResponse reports how many assets received a fresh price
type UpdateAllPricesResponse struct {
	UpdatedCount int `json:"updated_count"`
}

// LookupResponse is the result of a code-based quote lookup
type LookupResponse struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Category Category `json:"category"`
}

// SyncRequest migrates locally stored guest accounts to the server
type SyncRequest struct {
	Accounts []Account `json:"accounts"`
}
