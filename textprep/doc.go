// Package textprep turns story HTML and comment markup into cleaned,
// model-sized text chunks.
//
// Story pages go through an Extractor (docconv by default) before cleaning;
// comment fragments are stripped of their small tag set directly. Both paths
// share the same normalization and the langchaingo recursive character splitter.
package textprep
