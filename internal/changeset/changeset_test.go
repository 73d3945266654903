package changeset

import "testing"

const sampleDiff = `diff --git a/app/handlers.py b/app/handlers.py
--- a/app/handlers.py
+++ b/app/handlers.py
@@ -1,3 +1,4 @@
 import os
-old_value = 1
+new_value = 2
+extra_value = 3
 print(os.name)
diff --git a/app/models.py b/app/models.py
--- a/app/models.py
+++ b/app/models.py
@@ -1 +1 @@
-class Old: pass
+class New: pass
`

func TestFromDiff(t *testing.T) {
	cs, err := FromDiff(sampleDiff)
	if err != nil {
		t.Fatalf("FromDiff: %v", err)
	}

	if got := cs.FilesChanged(); got != 2 {
		t.Errorf("files = %d, want 2", got)
	}
	if cs.LinesAdded != 3 {
		t.Errorf("lines added = %d, want 3", cs.LinesAdded)
	}
	if cs.LinesRemoved != 2 {
		t.Errorf("lines removed = %d, want 2", cs.LinesRemoved)
	}
	if got := cs.LinesChanged(); got != 5 {
		t.Errorf("lines changed = %d, want 5", got)
	}
	if cs.Files[0] != "app/handlers.py" || cs.Files[1] != "app/models.py" {
		t.Errorf("files = %v", cs.Files)
	}
}

func TestFromDiffRejectsGarbage(t *testing.T) {
	if _, err := FromDiff("diff --git oops\nnot a diff"); err == nil {
		t.Error("garbage diff accepted")
	}
}

func TestRef(t *testing.T) {
	cs := &ChangeSet{Owner: "acme", Repo: "widgets", Number: 42}
	if got := cs.Ref(); got != "acme/widgets#42" {
		t.Errorf("Ref = %q", got)
	}
}
