//go:build e2e && unix

package main

import (
	"os"
	"path/filepath"
)

const sessionFixture = `
assemblies:
  - name: hg38
    display_name: Human (GRCh38)
    regions:
      - {ref_name: chr17, start: 0, end: 3000000}
tracks:
  - track_id: genes
    name: GENCODE genes
    assembly_names: [hg38]
    adapter: {type: Gff3Adapter}
features:
  genes:
    - ref_name: chr17
      start: 2043000
      end: 2125000
      attributes:
        ID: "gene:BRCA1"
        Name: BRCA1
        type: gene
        images: [brca1_structure.png]
        image_group: structure
        markdown_url: docs/brca1.md
`

// CreateTestWorkspace writes a session fixture and a config that logs
// into the workspace
func (tf *TUITestFramework) CreateTestWorkspace() (string, error) {
	dir, err := os.MkdirTemp("", "featurelens-e2e-*")
	if err != nil {
		return "", err
	}
	tf.workspace = dir
	tf.t.Cleanup(func() { os.RemoveAll(dir) })

	if err := os.WriteFile(filepath.Join(dir, "session.yaml"), []byte(sessionFixture), 0644); err != nil {
		return "", err
	}
	config := "[log]\nfile = \"" + filepath.Join(dir, "featurelens.log") + "\"\nlevel = \"debug\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(config), 0644); err != nil {
		return "", err
	}
	return dir, nil
}
