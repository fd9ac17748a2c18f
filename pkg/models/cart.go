package models

// Cart request payloads. The cart itself lives in the session store.

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"min=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
