package reconcile

// Outcome is the gateway-independent result of handling one notification.
type Outcome int

const (
	OutcomeConfirmed Outcome = iota
	OutcomeNotFound
	OutcomeAlreadyProcessed
	OutcomeInvalidAmount
	OutcomeInvalidSignature
	OutcomeInternal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeAlreadyProcessed:
		return "already_processed"
	case OutcomeInvalidAmount:
		return "invalid_amount"
	case OutcomeInvalidSignature:
		return "invalid_signature"
	default:
		return "internal"
	}
}

// VNPayAck is the body VNPay expects back from the IPN endpoint.
type VNPayAck struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

func vnpayAck(o Outcome) VNPayAck {
	switch o {
	case OutcomeConfirmed:
		return VNPayAck{RspCode: "00", Message: "Confirm Success"}
	case OutcomeNotFound:
		return VNPayAck{RspCode: "01", Message: "Order not found"}
	case OutcomeAlreadyProcessed:
		return VNPayAck{RspCode: "02", Message: "Order already confirmed"}
	case OutcomeInvalidAmount:
		return VNPayAck{RspCode: "04", Message: "Invalid amount"}
	case OutcomeInvalidSignature:
		return VNPayAck{RspCode: "97", Message: "Invalid signature"}
	default:
		return VNPayAck{RspCode: "99", Message: "Unknown error"}
	}
}

// MoMoAck is the body MoMo expects back from the IPN endpoint.
type MoMoAck struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

func momoAck(o Outcome) MoMoAck {
	switch o {
	case OutcomeConfirmed:
		return MoMoAck{ResultCode: 0, Message: "success"}
	case OutcomeNotFound:
		return MoMoAck{ResultCode: 1, Message: "Order not found"}
	case OutcomeAlreadyProcessed:
		return MoMoAck{ResultCode: 0, Message: "Already confirmed"}
	case OutcomeInvalidAmount:
		return MoMoAck{ResultCode: 4, Message: "Invalid amount"}
	case OutcomeInvalidSignature:
		return MoMoAck{ResultCode: 97, Message: "Invalid signature"}
	default:
		return MoMoAck{ResultCode: 99, Message: "Unknown error"}
	}
}
