// Package html provides the layout-aware HTML partitioner tier. It splits
// a page into prose blocks and tables; tables are rendered as markdown and
// prose is handed to the segmenter.
package html
