package filesystem

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLocalFSDirAndStat(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("seeding fixture: %v", err)
	}
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("seeding fixture dir: %v", err)
	}
	fsys := NewLocalFS(root)

	entries, err := fsys.Dir("/")
	if err != nil {
		t.Fatalf("Dir(\"/\"): %v", err)
	}
	var gotFile, gotDir bool
	for _, e := range entries {
		switch e.Name {
		case "a.txt":
			gotFile = true
			if e.Size != 5 {
				t.Errorf("a.txt size = %d, want 5", e.Size)
			}
			if e.IsDir {
				t.Error("a.txt reported as a directory")
			}
		case "sub":
			gotDir = true
			if !e.IsDir {
				t.Error("sub reported as a file")
			}
		}
	}
	if !gotFile || !gotDir {
		t.Fatalf("Dir(\"/\") = %+v, missing expected entries", entries)
	}

	entry, err := fsys.Stat("/a.txt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if entry.Name != "a.txt" || entry.Size != 5 {
		t.Errorf("Stat(/a.txt) = %+v, want name a.txt size 5", entry)
	}
}

func TestLocalFSCheckDir(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seeding fixture: %v", err)
	}
	fsys := NewLocalFS(root)

	if err := fsys.CheckDir("/"); err != nil {
		t.Errorf("CheckDir(\"/\") = %v, want nil", err)
	}
	if err := fsys.CheckDir("/a.txt"); err == nil {
		t.Error("CheckDir(\"/a.txt\") = nil, want error for a regular file")
	}
}

func TestLocalFSOpenReadWriteRoundTrip(t *testing.T) {
	root := t.TempDir()
	fsys := NewLocalFS(root)

	w, err := fsys.OpenWrite("/b.txt", false)
	if err != nil {
		t.Fatalf("OpenWrite: %v", err)
	}
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := fsys.OpenRead("/b.txt", 0)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}
	defer r.Close()
	buf := make([]byte, 32)
	n, _ := r.Read(buf)
	if string(buf[:n]) != "payload" {
		t.Errorf("read back %q, want %q", buf[:n], "payload")
	}
}

func TestLocalFSOpenReadOffset(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "c.txt"), []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("seeding fixture: %v", err)
	}
	fsys := NewLocalFS(root)

	r, err := fsys.OpenRead("/c.txt", 5)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}
	defer r.Close()
	buf := make([]byte, 32)
	n, _ := r.Read(buf)
	if string(buf[:n]) != "56789" {
		t.Errorf("read from offset 5 = %q, want %q", buf[:n], "56789")
	}
}

func TestLocalFSRemoveAndRename(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "d.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seeding fixture: %v", err)
	}
	fsys := NewLocalFS(root)

	if err := fsys.Rename("/d.txt", "/e.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := fsys.Stat("/d.txt"); err == nil {
		t.Error("old name still resolves after Rename")
	}
	if _, err := fsys.Stat("/e.txt"); err != nil {
		t.Fatalf("Stat(/e.txt) after rename: %v", err)
	}

	if err := fsys.Remove("/e.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := fsys.Stat("/e.txt"); err == nil {
		t.Error("file still resolves after Remove")
	}
}

func TestLocalFSMakeDir(t *testing.T) {
	root := t.TempDir()
	fsys := NewLocalFS(root)

	if err := fsys.MakeDir("/nested/dir"); err != nil {
		t.Fatalf("MakeDir: %v", err)
	}
	if err := fsys.CheckDir("/nested/dir"); err != nil {
		t.Errorf("CheckDir after MakeDir: %v", err)
	}
}

func TestLocalFSCreateUnique(t *testing.T) {
	root := t.TempDir()
	fsys := NewLocalFS(root)

	name, err := fsys.CreateUnique("/")
	if err != nil {
		t.Fatalf("CreateUnique: %v", err)
	}
	if name == "" {
		t.Fatal("CreateUnique returned an empty name")
	}
	if _, err := os.Stat(filepath.Join(root, name)); err != nil {
		t.Errorf("CreateUnique did not create %q on disk: %v", name, err)
	}

	second, err := fsys.CreateUnique("/")
	if err != nil {
		t.Fatalf("CreateUnique (second call): %v", err)
	}
	if second == name {
		t.Error("CreateUnique returned the same name twice")
	}
}

func TestLocalFSModifyTime(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seeding fixture: %v", err)
	}
	fsys := NewLocalFS(root)

	if err := fsys.ModifyTime("/f.txt", "20200101120000"); err != nil {
		t.Fatalf("ModifyTime: %v", err)
	}
	entry, err := fsys.Stat("/f.txt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	want := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
	if !entry.ModTime.Equal(want) {
		t.Errorf("ModTime = %v, want %v", entry.ModTime, want)
	}
}

func TestLocalFSContainment(t *testing.T) {
	root := t.TempDir()
	fsys := NewLocalFS(root)

	cases := []string{"/../../etc/passwd", "../outside", "/a/../../b"}
	for _, path := range cases {
		if _, err := fsys.Stat(path); err == nil {
			t.Errorf("Stat(%q) escaped the virtual root without error", path)
		}
	}
}
