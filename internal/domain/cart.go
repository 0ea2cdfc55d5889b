package domain

// LineItem is a single cart entry. At most one LineItem exists per
// product id; adding a product that is already present merges the
// quantities instead of appending a second line.
type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart is the ordered sequence of line items. It is persisted as a
// whole blob and owned exclusively by the cart controller.
type Cart struct {
	Items []LineItem `json:"items"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Upsert merges quantity into the existing line for the product or
// appends a new line, preserving insertion order. Reports whether a
// new product id was introduced.
func (c *Cart) Upsert(productID string, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return false
		}
	}
	c.Items = append(c.Items, LineItem{ProductID: productID, Quantity: quantity})
	return true
}

// SetQuantity replaces the quantity on an existing line. Reports
// whether the product id was found.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Remove deletes the line for the product id. Removing an absent id
// is a no-op. Reports whether anything was removed.
func (c *Cart) Remove(productID string) bool {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Quantity returns the quantity for the product id, 0 when absent.
func (c Cart) Quantity(productID string) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// ProductIDs returns the distinct product ids in cart order.
func (c Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Clone returns a deep copy, safe to hand out as a snapshot.
func (c Cart) Clone() Cart {
	if len(c.Items) == 0 {
		return Cart{}
	}
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}
