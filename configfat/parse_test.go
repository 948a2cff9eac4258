package configfat

import (
	"strconv"
	"testing"
)

func newBrightnessRegistry(brightness *int) *Registry {
	reg := NewRegistry()
	reg.Register("brightness", "50", "#(0~100)",
		func(value []byte) bool {
			n, err := strconv.Atoi(string(value))
			return err == nil && n >= 0 && n <= 100
		},
		func(value []byte) {
			n, _ := strconv.Atoi(string(value))
			*brightness = n
		},
		func(out []byte) int {
			return copy(out, "brightness="+strconv.Itoa(*brightness))
		},
	)
	return reg
}

func TestParseValidEditUpdatesAndRenders(t *testing.T) {
	var brightness int
	reg := newBrightnessRegistry(&brightness)
	img := NewImage()

	host := []byte("brightness=75\t#(0~100)\r\n")
	illegal := Parse(reg, img, host, nil)

	if illegal {
		t.Errorf("Parse() illegal = true, want false for a valid edit")
	}
	if brightness != 75 {
		t.Errorf("brightness = %d, want 75", brightness)
	}

	got := string(img.File()[:len("brightness=75\t#(0~100)\r\n")])
	want := "brightness=75\t#(0~100)\r\n"
	if got != want {
		t.Errorf("file window = %q, want %q", got, want)
	}
}

func TestParseInvalidEditFallsBackToDefault(t *testing.T) {
	brightness := 50
	reg := newBrightnessRegistry(&brightness)
	img := NewImage()

	host := []byte("brightness=999\t#(0~100)\r\n")
	illegal := Parse(reg, img, host, nil)

	if !illegal {
		t.Errorf("Parse() illegal = false, want true for a rejected value")
	}
	if brightness != 50 {
		t.Errorf("brightness = %d, want 50 (update must not run on validation failure)", brightness)
	}

	want := "brightness=50"
	got := string(img.File()[:len(want)])
	if got != want {
		t.Errorf("file window prefix = %q, want %q", got, want)
	}
}

func TestParseMissingEntryAppliesDefault(t *testing.T) {
	brightness := 0
	reg := newBrightnessRegistry(&brightness)
	img := NewImage()

	host := []byte("unrelated=1\r\n")
	illegal := Parse(reg, img, host, nil)

	if !illegal {
		t.Errorf("Parse() illegal = false, want true when a registered entry is absent")
	}
	if brightness != 50 {
		t.Errorf("brightness = %d, want 50 (update(default) must run)", brightness)
	}
}

func TestParseRebuildsDirectoryAndFATChain(t *testing.T) {
	brightness := 50
	reg := newBrightnessRegistry(&brightness)
	img := NewImage()

	Parse(reg, img, []byte("brightness=50\t#(0~100)\r\n"), nil)

	root := img.Root()
	if findConfigEntry(root) == nil {
		t.Fatalf("directory entry not created by Parse")
	}
	if cc := configStartClusterOf(root); cc != configStartCluster {
		t.Errorf("starting cluster = %d, want %d", cc, configStartCluster)
	}

	content := Render(reg)
	if sz := configSizeOf(root); sz != uint32(len(content)) {
		t.Errorf("directory size = %d, want %d", sz, len(content))
	}

	if got := getFAT12Entry(img.FAT1(), configStartCluster); got != 0xFFF {
		t.Errorf("FAT entry for cluster 2 = 0x%03X, want 0xFFF (single-cluster content)", got)
	}
}

func TestSplitLinesRespectsCRLFAndLF(t *testing.T) {
	src := []byte("a=1\r\nb=2\nc=3")
	lines := splitLines(src)

	want := []string{"a=1", "b=2", "c=3"}
	for i, w := range want {
		if lines[i] == nil || string(lines[i]) != w {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], w)
		}
	}
	if lines[len(want)] != nil {
		t.Errorf("lines[%d] = %q, want nil (no further content)", len(want), lines[len(want)])
	}
}

func TestSplitLinesTruncatesAt2047Bytes(t *testing.T) {
	payload := make([]byte, 2047)
	for i := range payload {
		payload[i] = 'a'
	}
	lines := splitLines(payload)
	if len(lines[0]) != 2047 {
		t.Errorf("line length = %d, want 2047 (no truncation at the boundary)", len(lines[0]))
	}

	overPayload := make([]byte, 2048)
	for i := range overPayload {
		overPayload[i] = 'a'
	}
	lines = splitLines(overPayload)
	if len(lines[0]) != 2047 {
		t.Errorf("line length = %d, want 2047 (truncated)", len(lines[0]))
	}
}

func TestSplitLinesStopsAtEmptyLine(t *testing.T) {
	src := []byte("a=1\r\n\r\nb=2\r\n")
	lines := splitLines(src)

	if lines[0] == nil || string(lines[0]) != "a=1" {
		t.Fatalf("lines[0] = %q, want %q", lines[0], "a=1")
	}
	if lines[1] != nil {
		t.Errorf("lines[1] = %q, want nil (empty line terminates parsing)", lines[1])
	}
}

func TestSplitLinesBareCRIsNotATerminator(t *testing.T) {
	src := []byte("a=1\rstill-one-line\r\n")
	lines := splitLines(src)

	if lines[0] == nil || string(lines[0]) != "a=1\rstill-one-line" {
		t.Errorf("lines[0] = %q, want %q", lines[0], "a=1\rstill-one-line")
	}
	if lines[1] != nil {
		t.Errorf("lines[1] = %q, want nil", lines[1])
	}
}

func TestLooksLikeConfigMatchesRegisteredName(t *testing.T) {
	reg := NewRegistry()
	reg.Register("brightness", "50", "", nil, nil, nil)

	if !looksLikeConfig([]byte("brightness=50\t#x\r\n"), reg) {
		t.Errorf("looksLikeConfig() = false, want true for a matching prefix")
	}
	if looksLikeConfig([]byte("\x05garbage"), reg) {
		t.Errorf("looksLikeConfig() = true, want false for a dot-file-style sentinel")
	}
}
