package asset

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"strings"
)

// StoryKey は名前・ストーリー ID・オリジナル概要から決定論的なキーを生成します。
// 同じ入力なら同じ保存先になるのだ。
func StoryKey(childName, storyID, customStory string) string {
	hash := sha256.Sum256([]byte(strings.Join([]string{childName, storyID, customStory}, "|")))
	seed := binary.BigEndian.Uint32(hash[:4]) & 0x7fffffff
	return strconv.FormatUint(uint64(seed), 10)
}
