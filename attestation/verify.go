package attestation

import (
	"bytes"
	"encoding/hex"
	"fmt"

	tdx_abi "github.com/google/go-tdx-guest/abi"
	tdx_pb "github.com/google/go-tdx-guest/proto/tdx"
	"github.com/google/go-tdx-guest/verify"
)

// VerifyDCAPQuote verifies a raw TDX quote against the expected report data
// and returns the quote's measurement registers indexed the same way the
// measurement header uses them.
func VerifyDCAPQuote(reportData [64]byte, quote []byte) (map[int]string, error) {
	protoQuote, err := tdx_abi.QuoteToProto(quote)
	if err != nil {
		return nil, fmt.Errorf("could not parse quote: %w", err)
	}

	v4Quote, ok := protoQuote.(*tdx_pb.QuoteV4)
	if !ok {
		return nil, fmt.Errorf("unsupported quote type: %T", protoQuote)
	}

	options := verify.DefaultOptions()
	if err := verify.TdxQuote(protoQuote, options); err != nil {
		return nil, fmt.Errorf("quote verification failed: %w", err)
	}

	if !bytes.Equal(v4Quote.TdQuoteBody.ReportData, reportData[:]) {
		return nil, fmt.Errorf("invalid report data %x, expected %x", v4Quote.TdQuoteBody.ReportData, reportData[:])
	}

	measurements := map[int]string{
		0: hex.EncodeToString(v4Quote.TdQuoteBody.MrTd),
		1: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[0]),
		2: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[1]),
		3: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[2]),
		4: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[3]),
		5: hex.EncodeToString(v4Quote.TdQuoteBody.MrConfigId),
		6: hex.EncodeToString(v4Quote.TdQuoteBody.MrOwner),
		7: hex.EncodeToString(v4Quote.TdQuoteBody.MrOwnerConfig),
	}

	return measurements, nil
}
