// Command esimlink-keyset generates a cleartext Tink AES-256-GCM keyset for
// encrypting tokens in the distributed store. The output feeds
// ESIMLINK_CACHE_ENCRYPTION_KEYSET; treat it as a secret.
package main

import (
	"fmt"
	"os"

	"github.com/tink-crypto/tink-go/v2/aead"
	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
)

func main() {
	handle, err := keyset.NewHandle(aead.AES256GCMKeyTemplate())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating keyset: %v\n", err)
		os.Exit(1)
	}

	if err := insecurecleartextkeyset.Write(handle, keyset.NewJSONWriter(os.Stdout)); err != nil {
		fmt.Fprintf(os.Stderr, "error writing keyset: %v\n", err)
		os.Exit(1)
	}
}
