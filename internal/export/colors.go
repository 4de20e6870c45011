package export

import (
	"crypto/md5"
	"fmt"
)

// GroupColor derives a stable hex color from a group identifier, so rows of
// the same group render identically in any viewer. The color is the first six
// hex digits of the MD5 of the decimal group id.
func GroupColor(groupID int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d", groupID)))
	return fmt.Sprintf("#%x", sum[:3])
}
