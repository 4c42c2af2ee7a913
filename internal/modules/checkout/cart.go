package checkout

import (
	"frontdesk/internal/backend"
)

// PendingService is a service added during check-out and not yet billed.
type PendingService struct {
	ServiceID    int64   `json:"serviceId"`
	ServiceName  string  `json:"serviceName"`
	PricePerUnit float64 `json:"pricePerUnit"`
	Quantity     int     `json:"quantity"`
	Total        float64 `json:"total"`
}

// Cart holds one line per add, so removing a service undoes exactly the
// latest add of it. The backend only sees it on submit.
type Cart struct {
	items []PendingService
}

func (c *Cart) Add(serviceID int64, name string, pricePerUnit float64, quantity int) error {
	if serviceID <= 0 || quantity <= 0 || pricePerUnit < 0 {
		return ErrValidation
	}
	c.items = append(c.items, PendingService{
		ServiceID:    serviceID,
		ServiceName:  name,
		PricePerUnit: pricePerUnit,
		Quantity:     quantity,
		Total:        pricePerUnit * float64(quantity),
	})
	return nil
}

// Remove drops the most recently added line for serviceID.
func (c *Cart) Remove(serviceID int64) error {
	for i := len(c.items) - 1; i >= 0; i-- {
		if c.items[i].ServiceID == serviceID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return ErrServiceNotInCart
}

func (c *Cart) Items() []PendingService {
	out := make([]PendingService, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Total() float64 {
	return sumPending(c.items)
}

func (c *Cart) Clear() { c.items = nil }

func (c *Cart) Len() int { return len(c.items) }

// FinalServices sums quantities per service, in order of first add.
func (c *Cart) FinalServices() []backend.FinalService {
	out := make([]backend.FinalService, 0, len(c.items))
	index := make(map[int64]int, len(c.items))
	for _, it := range c.items {
		if i, ok := index[it.ServiceID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ServiceID] = len(out)
		out = append(out, backend.FinalService{ServiceID: it.ServiceID, Quantity: it.Quantity})
	}
	return out
}

func sumPending(items []PendingService) float64 {
	var total float64
	for _, it := range items {
		total += it.Total
	}
	return total
}
