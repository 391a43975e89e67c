package textnorm

import "testing"

func TestClean(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trim and collapse", "  資料結構   與 演算法  ", "資料結構 與 演算法"},
		{"fullwidth digits normalize", "ＣＳ１０１", "CS101"},
		{"zero width removed", "王​小明", "王小明"},
		{"newlines collapse", "Intro to\nComputer  Science", "Intro to Computer Science"},
		{"case preserved", "Data Structures", "Data Structures"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanAllDropsEmpty(t *testing.T) {
	t.Parallel()

	got := CleanAll([]string{" 王小明 ", "  ", "李大華"})
	if len(got) != 2 || got[0] != "王小明" || got[1] != "李大華" {
		t.Fatalf("CleanAll = %v", got)
	}
}
