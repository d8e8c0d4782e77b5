package domain

// resultMessages maps known two-character gateway result codes to operator
// messages. Codes the gateway adds later must degrade to the fallback,
// never crash the notification pipeline.
var resultMessages = map[string]string{
	"00": "Action completed successfully.",
	"02": "The merchant must contact the cardholder's bank. Deprecated.",
	"05": "Action refused.",
	"17": "Buyer cancellation.",
	"30": "Request format error. Check the extra result field.",
	"96": "Technical error.",
}

// ResultMessage returns the human-readable mapping for a gateway result
// code, with a generic fallback for unrecognized codes.
func ResultMessage(code string) string {
	if msg, ok := resultMessages[code]; ok {
		return msg
	}
	return "Unknown result code."
}
