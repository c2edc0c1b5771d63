// Command sealkey seals a custody private key for ethereum.sealed_custody_key.
//
// The master key is read from VAULT_MASTER_KEY. With -generate a new master
// key is printed instead.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chainsafe/vault-ledger/pkg/config"
	"github.com/chainsafe/vault-ledger/pkg/keys"
)

func main() {
	generate := flag.Bool("generate", false, "Print a new base64 master key and exit")
	privateKey := flag.String("key", "", "Hex custody private key to seal (defaults to VAULT_CUSTODY_PRIVATE_KEY)")
	flag.Parse()

	if *generate {
		master, err := keys.GenerateMasterKey()
		if err != nil {
			log.Fatalf("error generating master key: %s", err)
		}
		fmt.Println(keys.MasterKeyToBase64(master))
		return
	}

	master, err := keys.MasterKeyFromBase64(os.Getenv(config.EnvMasterKey))
	if err != nil {
		log.Fatalf("error reading %s: %s", config.EnvMasterKey, err)
	}

	hexKey := *privateKey
	if hexKey == "" {
		hexKey = os.Getenv(config.EnvCustodyPrivateKey)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		log.Fatalf("error decoding private key: %s", err)
	}

	sealed, err := keys.Seal(raw, master)
	if err != nil {
		log.Fatalf("error sealing private key: %s", err)
	}
	fmt.Println(sealed)
}
