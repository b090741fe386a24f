package orders

const (
	TopicOrderCreated              = "order.created"
	TopicOrderStatusChanged        = "order.status_changed"
	TopicOrderPaymentUpdated       = "order.payment_updated"
	TopicOrderCancelled            = "order.cancelled"
	TopicInventoryAdjustmentFailed = "inventory.adjustment_failed"
)

// Partition key = order_id, so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
