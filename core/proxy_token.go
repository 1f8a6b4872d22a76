package core

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/cloudflare/circl/kem/kyber/kyber768"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/chacha20poly1305"
)

const tokenLifetime = 1 * time.Hour

// TokenIssuer mints and validates the quantum-resistant access tokens
// carried by every ProxyAddress (spec §4.9):
//
//	access_token = KyberCT ‖ ChaCha20Poly1305Seal(KyberSS, Dilithium3Sign(payload) ‖ payload)
//
// where payload = (proxy address bytes, wall-clock millis, 16-byte nonce).
// A single issuer owns one Kyber768 keypair and one Dilithium3 keypair for
// the node's lifetime; recently-seen payload nonces are tracked in an LRU
// set to reject replay within the token lifetime window.
type TokenIssuer struct {
	kyberPub  *kyber768.PublicKey
	kyberPriv *kyber768.PrivateKey
	sigPub    mode3.PublicKey
	sigPriv   mode3.PrivateKey

	mu         sync.Mutex
	seenNonces *lru.Cache[string, time.Time]
}

// NewTokenIssuer generates fresh Kyber768 and Dilithium3 keypairs for this
// node and returns an issuer ready to mint and validate tokens.
func NewTokenIssuer() (*TokenIssuer, error) {
	kyberPub, kyberPriv, err := kyber768.GenerateKeyPair(rand.Reader)
	if err != nil {
		return nil, &AdapterError{Message: "kyber768 keygen failed", Cause: err}
	}
	sigPub, sigPriv, err := mode3.GenerateKey(rand.Reader)
	if err != nil {
		return nil, &AdapterError{Message: "dilithium3 keygen failed", Cause: err}
	}
	cache, err := lru.New[string, time.Time](4096)
	if err != nil {
		return nil, &AdapterError{Message: "nonce cache init failed", Cause: err}
	}
	return &TokenIssuer{
		kyberPub:   kyberPub,
		kyberPriv:  kyberPriv,
		sigPub:     *sigPub,
		sigPriv:    *sigPriv,
		seenNonces: cache,
	}, nil
}

func addressBytes(addr ProxyAddress) []byte {
	buf := make([]byte, 0, 16+8+2)
	buf = append(buf, addr.NetworkPrefix[:]...)
	var nodeBuf [8]byte
	binary.BigEndian.PutUint64(nodeBuf[:], addr.NodeID)
	buf = append(buf, nodeBuf[:]...)
	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], addr.Port)
	buf = append(buf, portBuf[:]...)
	return buf
}

// Issue constructs a fresh access token for the given address per spec
// §4.9: encapsulate a Kyber768 shared secret, sign the payload with
// Dilithium3, then seal signature‖payload under ChaCha20-Poly1305 keyed by
// the shared secret. The returned bytes are KyberCT ‖ sealed box.
func (t *TokenIssuer) Issue(addr ProxyAddress) ([]byte, error) {
	ct := make([]byte, kyber768.CiphertextSize)
	ss := make([]byte, kyber768.SharedKeySize)
	seed := make([]byte, kyber768.EncapsulationSeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, &AdapterError{Message: "rng failure", Cause: err}
	}
	t.kyberPub.EncapsulateTo(ct, ss, seed)

	var nonce16 [16]byte
	if _, err := rand.Read(nonce16[:]); err != nil {
		return nil, &AdapterError{Message: "rng failure", Cause: err}
	}
	payload := make([]byte, 0, 26+16)
	payload = append(payload, addressBytes(addr)...)
	var millisBuf [8]byte
	binary.BigEndian.PutUint64(millisBuf[:], uint64(time.Now().UnixMilli()))
	payload = append(payload, millisBuf[:]...)
	payload = append(payload, nonce16[:]...)

	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(&t.sigPriv, payload, sig)

	aead, err := chacha20poly1305.NewX(ss[:chacha20poly1305.KeySize])
	if err != nil {
		return nil, &AdapterError{Message: "aead init failed", Cause: err}
	}
	aeadNonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(aeadNonce); err != nil {
		return nil, &AdapterError{Message: "rng failure", Cause: err}
	}
	plaintext := append(sig, payload...)
	sealed := aead.Seal(aeadNonce, aeadNonce, plaintext, nil)

	out := make([]byte, 0, len(ct)+len(sealed))
	out = append(out, ct...)
	out = append(out, sealed...)
	return out, nil
}

var errTokenInvalid = errors.New("proxy token invalid")

// Validate reverses Issue: decapsulate the Kyber ciphertext, open the AEAD
// box, verify the embedded Dilithium3 signature, reject a token older than
// tokenLifetime, reject a token stamped further than MaxTimestampDrift into
// the future (clock-skew tolerance, not a symmetric window), and reject
// nonces seen before within the token lifetime window.
func (t *TokenIssuer) Validate(token []byte, addr ProxyAddress) error {
	if len(token) < kyber768.CiphertextSize+chacha20poly1305.NonceSizeX {
		return errTokenInvalid
	}
	ct := token[:kyber768.CiphertextSize]
	sealed := token[kyber768.CiphertextSize:]

	ss := make([]byte, kyber768.SharedKeySize)
	t.kyberPriv.DecapsulateTo(ss, ct)

	aead, err := chacha20poly1305.NewX(ss[:chacha20poly1305.KeySize])
	if err != nil {
		return &AdapterError{Message: "aead init failed", Cause: err}
	}
	if len(sealed) < aead.NonceSize() {
		return errTokenInvalid
	}
	aeadNonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, aeadNonce, ciphertext, nil)
	if err != nil {
		return errTokenInvalid
	}
	if len(plaintext) < mode3.SignatureSize+26+16 {
		return errTokenInvalid
	}
	sig := plaintext[:mode3.SignatureSize]
	payload := plaintext[mode3.SignatureSize:]

	if !mode3.Verify(&t.sigPub, payload, sig) {
		return errTokenInvalid
	}

	wantAddr := addressBytes(addr)
	if len(payload) < len(wantAddr)+8+16 {
		return errTokenInvalid
	}
	gotAddr := payload[:len(wantAddr)]
	for i := range wantAddr {
		if wantAddr[i] != gotAddr[i] {
			return errTokenInvalid
		}
	}
	millis := binary.BigEndian.Uint64(payload[len(wantAddr) : len(wantAddr)+8])
	nonce := payload[len(wantAddr)+8:]

	issuedAt := time.UnixMilli(int64(millis))
	now := time.Now()
	if issuedAt.Add(tokenLifetime).Before(now) {
		return errTokenInvalid
	}
	if issuedAt.After(now.Add(MaxTimestampDrift)) {
		return errTokenInvalid
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	key := string(nonce)
	if _, seen := t.seenNonces.Get(key); seen {
		return errTokenInvalid
	}
	t.seenNonces.Add(key, time.Now())
	return nil
}
