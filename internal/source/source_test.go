package source

import "testing"

func TestParseLocator(t *testing.T) {
	cases := []struct {
		in     string
		scheme string
		bucket string
		key    string
	}{
		{"s3://my-bucket/path/to/object.bam", "s3", "my-bucket", "path/to/object.bam"},
		{"s3://b/k", "s3", "b", "k"},
		{"gs://archive/genomes/hg38.fa", "gs", "archive", "genomes/hg38.fa"},
		{"file:///data/downloads/object.bin", "file", "/data/downloads", "object.bin"},
		{"mem://bucket/key", "mem", "bucket", "key"},
	}

	for _, tc := range cases {
		loc, err := ParseLocator(tc.in)
		if err != nil {
			t.Errorf("ParseLocator(%q): %v", tc.in, err)
			continue
		}
		if loc.Scheme != tc.scheme || loc.Bucket != tc.bucket || loc.Key != tc.key {
			t.Errorf("ParseLocator(%q) = %+v, want %s/%s/%s",
				tc.in, loc, tc.scheme, tc.bucket, tc.key)
		}
	}
}

func TestParseLocator_Invalid(t *testing.T) {
	for _, in := range []string{"", "not-a-url", "s3://bucket-only", "s3://bucket/"} {
		if _, err := ParseLocator(in); err == nil {
			t.Errorf("ParseLocator(%q) should fail", in)
		}
	}
}
