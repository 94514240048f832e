package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/distill/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "docrec"
	documentIDSeq      = "docrecseq"
	segmentPrefix      = "segrec"
	knowledgePrefix    = "kporec"
	knowledgeDocPrefix = "kporecd"
	knowledgeIDSeq     = "kporecseq"
	insightPrefix      = "insrec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeSegmentKey generates a composite key for a segment.
// Format: prefix:documentID:segmentIndex, both big-endian so iteration
// yields segments in index order.
func makeSegmentKey(documentID core.ID, segmentIndex int) []byte {
	prefix := segmentPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(segmentIndex))
	return buf
}

// makeSegmentDocPrefix generates the iteration prefix covering all segments
// of one document.
func makeSegmentDocPrefix(documentID core.ID) []byte {
	prefix := segmentPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeKnowledgePointKey generates a key for a knowledge point by ID.
func makeKnowledgePointKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", knowledgePrefix, id))
}

// makeKnowledgeDocKey generates a composite key for the document index.
// Format: prefix:documentID:pointID
func makeKnowledgeDocKey(documentID, pointID core.ID) []byte {
	prefix := knowledgeDocPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(pointID))
	return buf
}

// makeKnowledgeDocPrefix generates the iteration prefix covering the document
// index entries of one document.
func makeKnowledgeDocPrefix(documentID core.ID) []byte {
	prefix := knowledgeDocPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeInsightKey generates a key for an insight by its knowledge point ID.
func makeInsightKey(knowledgePointID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", insightPrefix, knowledgePointID))
}
