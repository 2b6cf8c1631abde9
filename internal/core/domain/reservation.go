package domain

// ReservationRequest describes the scarce resource one registration
// consumes: a single capacity slot for Normal events, or a set of
// variant quantities for Merchandise events. The two forms are mutually
// exclusive.
type ReservationRequest struct {
	Slot  bool
	Items []ItemRequest
}

type ItemRequest struct {
	ItemName string
	Size     string
	Quantity int
}

func SlotRequest() ReservationRequest {
	return ReservationRequest{Slot: true}
}

func StockRequest(items []ItemRequest) ReservationRequest {
	return ReservationRequest{Items: items}
}

// ReservationFor derives the request a registration's resources map to.
func ReservationFor(reg *Registration, eventType EventType) ReservationRequest {
	if eventType == EventMerchandise {
		items := make([]ItemRequest, 0, len(reg.Items))
		for _, it := range reg.Items {
			items = append(items, ItemRequest{
				ItemName: it.ItemName,
				Size:     it.Size,
				Quantity: it.Quantity,
			})
		}
		return StockRequest(items)
	}
	return SlotRequest()
}
