package event

import (
	"encoding/json"
	"fmt"
)

type InvoiceCreatedPayload struct {
	InvoiceGUID  string `json:"invoice_guid"`
	CustomerGUID string `json:"customer_guid"`
	Amount       int64  `json:"amount"`
}

type TransactionScheduledPayload struct {
	InvoiceGUID     string `json:"invoice_guid"`
	TransactionGUID string `json:"transaction_guid"`
	Amount          int64  `json:"amount"`
	PaymentURI      string `json:"payment_uri"`
}

type TransactionCanceledPayload struct {
	InvoiceGUID     string `json:"invoice_guid"`
	TransactionGUID string `json:"transaction_guid"`
}

// DecodePayload restores the typed payload of a serialized event.
func DecodePayload(typ Type, data []byte) (any, error) {
	switch typ {
	case InvoiceCreated:
		var p InvoiceCreatedPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case TransactionScheduled:
		var p TransactionScheduledPayload
		err := json.Unmarshal(data, &p)
		return p, err
	case TransactionCanceled:
		var p TransactionCanceledPayload
		err := json.Unmarshal(data, &p)
		return p, err
	}
	return nil, fmt.Errorf("unknown event type %q", typ)
}
