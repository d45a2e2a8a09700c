package attestation

import (
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	tdx_client "github.com/google/go-tdx-guest/client"
)

var (
	// DCAPAttestation identifies quotes produced by a local TDX quoting
	// device (QEMU/bare-metal TDX).
	DCAPAttestation = Type{
		OID:      asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 58642, 3, 1},
		StringID: "qemu-tdx",
	}

	// MAAAttestation identifies quotes verified through Azure's attestation
	// service.
	MAAAttestation = Type{
		OID:      asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 58642, 3, 2},
		StringID: "azure-tdx",
	}

	// DummyAttestation identifies placeholder evidence for development
	// environments without TEE hardware.
	DummyAttestation = Type{
		OID:      asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 58642, 3, 404},
		StringID: "dummy",
	}
)

// Type describes an attestation mechanism, identified both by OID (for
// certificate extensions) and by string (for HTTP headers and flags).
type Type struct {
	OID      asn1.ObjectIdentifier
	StringID string
}

// TypeFromString resolves a string identifier to a known attestation type.
func TypeFromString(str string) (Type, error) {
	switch str {
	case DCAPAttestation.StringID:
		return DCAPAttestation, nil
	case MAAAttestation.StringID:
		return MAAAttestation, nil
	case DummyAttestation.StringID:
		return DummyAttestation, nil
	default:
		return Type{}, errors.ErrUnsupported
	}
}

// TypeFromOID resolves an OID to a known attestation type.
func TypeFromOID(oid asn1.ObjectIdentifier) (Type, error) {
	if oid.Equal(DCAPAttestation.OID) {
		return DCAPAttestation, nil
	}
	if oid.Equal(MAAAttestation.OID) {
		return MAAAttestation, nil
	}

	return Type{}, errors.ErrUnsupported
}

// Provider produces attestation evidence over 64 bytes of report data.
type Provider interface {
	AttestationType() Type
	Attest(reportData [64]byte) ([]byte, error)
}

// RemoteProvider requests quotes from a quote provider service, used when
// the quoting device is only reachable through a host-side proxy.
type RemoteProvider struct {
	Address string
}

func (*RemoteProvider) AttestationType() Type { return DCAPAttestation }

func (p *RemoteProvider) Attest(reportData [64]byte) ([]byte, error) {
	extraDataHex := hex.EncodeToString(reportData[:])

	url := fmt.Sprintf("%s/attest/%s", p.Address, extraDataHex)
	resp, err := http.DefaultClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("calling remote quote provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("remote quote provider returned status %d: %s", resp.StatusCode, string(body))
	}

	rawQuote, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading quote from response: %w", err)
	}
	return rawQuote, nil
}

// DCAPProvider obtains quotes from the local TDX quoting device.
type DCAPProvider struct{}

func (DCAPProvider) AttestationType() Type { return DCAPAttestation }

func (DCAPProvider) Attest(reportData [64]byte) ([]byte, error) {
	qp := &tdx_client.LinuxConfigFsQuoteProvider{}
	if qp.IsSupported() == nil {
		return qp.GetRawQuote(reportData)
	}

	qd, err := tdx_client.OpenDevice()
	if err != nil {
		return nil, err
	}
	defer qd.Close()

	return tdx_client.GetRawQuote(qd, reportData)
}

// DummyProvider returns placeholder evidence. Development only.
type DummyProvider struct{}

func (DummyProvider) AttestationType() Type {
	return DummyAttestation
}

func (DummyProvider) Attest(reportData [64]byte) ([]byte, error) {
	return []byte(fmt.Sprintf("Attestation for key %x", reportData)), nil
}
