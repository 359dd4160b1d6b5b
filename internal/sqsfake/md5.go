package sqsfake

import (
	"crypto/md5"
	"encoding/hex"
)

// md5sum is the checksum the sdk verifies against MD5OfMessageBody.
func md5sum(values ...string) string {
	hf := md5.New()
	for _, v := range values {
		hf.Write([]byte(v))
	}
	return hex.EncodeToString(hf.Sum(nil))
}
