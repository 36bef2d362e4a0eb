package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"time"
)

// TestTokenTTL is the lifetime of tokens from NewTestTokenProvider.
const TestTokenTTL = 15 * time.Minute

var (
	testKeyOnce             sync.Once
	testPrivPEM, testPubPEM string
	testKeyErr              error
)

// testKeyPEMs generates one RSA key per process and returns it PEM-encoded (PKCS#8 / PKIX).
func testKeyPEMs() (privatePEM, publicPEM string, err error) {
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			testKeyErr = err
			return
		}
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			testKeyErr = err
			return
		}
		pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			testKeyErr = err
			return
		}
		testPrivPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
		testPubPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	})
	return testPrivPEM, testPubPEM, testKeyErr
}

// NewTestTokenProvider returns an RS256 TokenProvider over a throwaway key. For unit tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	privatePEM, publicPEM, err := testKeyPEMs()
	if err != nil {
		return nil, err
	}
	signer, pub, err := LoadKeyPair(privatePEM, publicPEM)
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(signer, pub, "bookstore-test", "bookstore-test-api", TestTokenTTL), nil
}
