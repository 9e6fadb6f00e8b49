package substrate

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/paritytech/subport/interfaces"
	"github.com/paritytech/subport/metadata"
	"github.com/paritytech/subport/scale"
	"golang.org/x/crypto/blake2b"
)

const (
	signedExtrinsicV4 = 0x84 // signed bit | version 4
	multiAddressID    = 0x00
	immortalEra       = 0x00

	// Payloads longer than this are hashed with blake2b-256 before signing.
	maxUnhashedPayload = 256
)

// ErrUnsupportedExtension is returned when the runtime requires a transaction
// extension whose data this client cannot provide.
var ErrUnsupportedExtension = errors.New("unsupported transaction extension")

// signingContext carries the chain data mixed into every signature.
type signingContext struct {
	meta               *metadata.Metadata
	specVersion        uint32
	transactionVersion uint32
	genesis            common.Hash
	nonce              uint64
}

// extensions returns the extra data included in the extrinsic and the
// additional data included only in the signed payload.
func (s signingContext) extensions() (extra, additional []byte, err error) {
	ex := scale.NewEncoder()
	add := scale.NewEncoder()

	for _, ext := range s.meta.SignedExtensions {
		switch ext.Identifier {
		case "CheckSpecVersion":
			add.U32(s.specVersion)
		case "CheckTxVersion":
			add.U32(s.transactionVersion)
		case "CheckGenesis":
			add.Raw(s.genesis[:])
		case "CheckMortality", "CheckEra":
			// immortal transactions are checked against the genesis hash
			ex.U8(immortalEra)
			add.Raw(s.genesis[:])
		case "CheckNonce":
			ex.Compact(s.nonce)
		case "ChargeTransactionPayment":
			ex.Compact(0)
		case "ChargeAssetTxPayment":
			ex.Compact(0).None()
		case "CheckMetadataHash":
			ex.U8(0) // mode: disabled
			add.None()
		default:
			zeroExtra, err := s.meta.IsZeroSized(ext.Type)
			if err != nil {
				return nil, nil, err
			}
			zeroAdditional, err := s.meta.IsZeroSized(ext.AdditionalSigned)
			if err != nil {
				return nil, nil, err
			}
			if !zeroExtra || !zeroAdditional {
				return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext.Identifier)
			}
		}
	}
	return ex.Bytes(), add.Bytes(), nil
}

// buildSignedExtrinsic assembles a v4 signed extrinsic around call.
func buildSignedExtrinsic(s signingContext, signer interfaces.Signer, call []byte) ([]byte, error) {
	if signer == nil {
		return nil, ErrNoSigner
	}

	extra, additional, err := s.extensions()
	if err != nil {
		return nil, err
	}

	payload := make([]byte, 0, len(call)+len(extra)+len(additional))
	payload = append(payload, call...)
	payload = append(payload, extra...)
	payload = append(payload, additional...)
	if len(payload) > maxUnhashedPayload {
		h := blake2b.Sum256(payload)
		payload = h[:]
	}

	signature, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign extrinsic: %w", err)
	}

	account := signer.AccountID()
	body := scale.NewEncoder().
		U8(signedExtrinsicV4).
		U8(multiAddressID).Raw(account[:]).
		Raw(signature).
		Raw(extra).
		Raw(call).
		Bytes()

	return scale.NewEncoder().ByteVec(body).Bytes(), nil
}
