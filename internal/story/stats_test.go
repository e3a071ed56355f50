package story

import (
	"reflect"
	"testing"
)

func TestComputeStatisticsRanking(t *testing.T) {
	words := []string{"a", "b", "a", "c", "b", "a"}
	got := ComputeStatistics(words, "eve", 5)

	want := []WordCount{{"a", 3}, {"b", 2}, {"c", 1}}
	if !reflect.DeepEqual(got.TopWords, want) {
		t.Errorf("TopWords = %v, want %v", got.TopWords, want)
	}
	if got.WordCount != 6 {
		t.Errorf("WordCount = %d, want 6", got.WordCount)
	}
}

func TestComputeStatisticsTies(t *testing.T) {
	words := []string{"z", "y", "x", "y", "z", "w"}
	got := ComputeStatistics(words, "eve", 0)

	want := []WordCount{{"z", 2}, {"y", 2}, {"x", 1}, {"w", 1}}
	if !reflect.DeepEqual(got.TopWords, want) {
		t.Errorf("TopWords = %v, want %v", got.TopWords, want)
	}
}

func TestComputeStatisticsTopK(t *testing.T) {
	words := []string{"a", "b", "c", "d", "e", "f", "g", "a"}
	got := ComputeStatistics(words, "", 5)

	if len(got.TopWords) != 5 {
		t.Fatalf("len(TopWords) = %d, want 5", len(got.TopWords))
	}
	if got.TopWords[0] != (WordCount{"a", 2}) {
		t.Errorf("TopWords[0] = %v, want a(2)", got.TopWords[0])
	}
	if got.LastContributor != UnknownContributor {
		t.Errorf("LastContributor = %q, want %q", got.LastContributor, UnknownContributor)
	}
}

func TestComputeStatisticsCaseSensitive(t *testing.T) {
	got := ComputeStatistics([]string{"The", "the", "the"}, "eve", 5)
	want := []WordCount{{"the", 2}, {"The", 1}}
	if !reflect.DeepEqual(got.TopWords, want) {
		t.Errorf("TopWords = %v, want %v", got.TopWords, want)
	}
}

func TestComputeStatisticsIdempotent(t *testing.T) {
	state := ParseState("the cat sat on the mat and the dog sat too")
	first := ComputeStatistics(state.Words, "eve", 10)
	second := ComputeStatistics(state.Words, "eve", 10)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("statistics differ between runs:\n%v\n%v", first, second)
	}
}

func TestComputeStatisticsEmpty(t *testing.T) {
	got := ComputeStatistics(nil, "eve", 5)
	if got.WordCount != 0 || len(got.TopWords) != 0 {
		t.Errorf("unexpected statistics for empty story: %+v", got)
	}
}
