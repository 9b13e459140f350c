/*
Package extract turns a loaded page into a form.Structure.

Two layouts are recognised. Google Forms pages are read question by question
from their `div[role=listitem]` containers; any other page is read from its
first `<form>` element, grouping controls by name. Each question is mapped to
exactly one form.FieldType, trying the types in a fixed order so that a
question matching several patterns always lands on the same type.

Questions that match no type are handled by the UnknownPolicy: skipped with a
warning, or reported as an ExtractionError.

Extraction never mutates the page and never returns a partial structure.
*/
package extract
