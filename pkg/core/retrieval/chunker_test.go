package retrieval

import (
	"strings"
	"testing"
)

func TestChunkSubstringAndOffsets(t *testing.T) {
	text := strings.Repeat("Revenue grew across all verticals this quarter. ", 60)
	chunker := NewChunker(1000, 200)

	chunks := chunker.Chunk("doc-1", text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
		if ch.DocumentID != "doc-1" {
			t.Errorf("chunk %d has document id %q", i, ch.DocumentID)
		}
		if ch.StartOffset < 0 || ch.EndOffset > len(text) || ch.StartOffset >= ch.EndOffset {
			t.Errorf("chunk %d has invalid offsets [%d, %d)", i, ch.StartOffset, ch.EndOffset)
		}
		if got := text[ch.StartOffset:ch.EndOffset]; got != ch.Text {
			t.Errorf("chunk %d text does not match its offsets", i)
		}
		if len(ch.Text) > 1000 {
			t.Errorf("chunk %d exceeds chunk size: %d bytes", i, len(ch.Text))
		}
	}

	if chunks[0].StartOffset != 0 {
		t.Errorf("first chunk starts at %d, want 0", chunks[0].StartOffset)
	}
	if last := chunks[len(chunks)-1]; last.EndOffset != len(text) {
		t.Errorf("last chunk ends at %d, want %d", last.EndOffset, len(text))
	}
}

func TestChunkOverlapIsContiguous(t *testing.T) {
	text := strings.Repeat("Margins held steady.\n\nDemand outlook remains strong. ", 50)
	chunker := NewChunker(500, 100)

	chunks := chunker.Chunk("doc-1", text)
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.StartOffset >= prev.EndOffset {
			t.Errorf("chunks %d and %d do not overlap: prev ends %d, cur starts %d",
				i-1, i, prev.EndOffset, cur.StartOffset)
		}
		if cur.StartOffset <= prev.StartOffset {
			t.Errorf("chunk %d does not advance past chunk %d", i, i-1)
		}
	}
}

func TestChunkReconstruction(t *testing.T) {
	text := strings.Repeat("The board approved a dividend of ₹24 per share.\n", 80)
	chunker := NewChunker(400, 80)

	chunks := chunker.Chunk("doc-1", text)

	// Concatenating each chunk's non-overlapping suffix reconstructs the
	// original text exactly.
	var b strings.Builder
	end := 0
	for _, ch := range chunks {
		b.WriteString(ch.Text[end-ch.StartOffset:])
		end = ch.EndOffset
	}
	if b.String() != text {
		t.Fatal("reconstructed text differs from original")
	}
}

func TestChunkNeverSplitsRunes(t *testing.T) {
	// Dense multi-byte text with no separators forces hard cuts.
	text := strings.Repeat("₹", 900)
	chunker := NewChunker(100, 20)

	for _, ch := range chunker.Chunk("doc-1", text) {
		if !strings.HasPrefix(text[ch.StartOffset:], ch.Text) {
			t.Fatal("chunk text not aligned with offsets")
		}
		for _, r := range ch.Text {
			if r == '�' {
				t.Fatal("chunk contains a broken rune")
			}
		}
	}
}

func TestChunkShortAndEmptyInput(t *testing.T) {
	chunker := NewChunker(1000, 200)

	if got := chunker.Chunk("doc-1", "   \n  "); got != nil {
		t.Errorf("blank input produced %d chunks", len(got))
	}

	short := "A single short remark."
	chunks := chunker.Chunk("doc-1", short)
	if len(chunks) != 1 {
		t.Fatalf("short input produced %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != short {
		t.Errorf("single chunk text = %q, want full input", chunks[0].Text)
	}
}
