// Package secrets encrypts small values, such as OAuth tokens, before they
// are written to the database.
//
// A Cipher is derived from a 32-byte master key and a purpose string with
// HKDF-SHA256, so one master key can serve several independent uses. Values
// are sealed with AES-256-GCM; the nonce is prepended to the ciphertext.
// Associated data binds a ciphertext to its row: a token sealed for one user
// will not open for another.
//
//	key, _ := secrets.ParseKey(os.Getenv("XERO_TOKEN_KEY"))
//	c, _ := secrets.New(key, "xero-token")
//	sealed, _ := c.EncryptString(token, userID)
//	plain, _ := c.DecryptString(sealed, userID)
package secrets
