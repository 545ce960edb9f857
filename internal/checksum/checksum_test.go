package checksum

import "testing"

func TestSum_KnownDigest(t *testing.T) {
	if got := Sum([]byte("")); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("Sum(empty) = %q", got)
	}
	if got := Sum([]byte("hello")); got != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("Sum(hello) = %q", got)
	}
}

func TestSum_ContentSensitive(t *testing.T) {
	a := Sum([]byte("# 제목\n본문\n"))
	b := Sum([]byte("# 제목\n본문 수정\n"))
	if a == b {
		t.Errorf("different content produced the same digest %q", a)
	}
}
