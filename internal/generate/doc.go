// Package generate produces randomised answers for a form.Structure.
//
// One value is drawn per field according to its type and the Policy:
//
//   - radio, dropdown: one option, uniformly
//   - checkbox: a non-empty subset whose size follows Policy.Checkbox
//   - short_text: a few distinct words from Policy.Words
//   - paragraph: several such phrases written as sentences
//   - date: YYYY-MM-DD within [Policy.DateFrom, Policy.DateTo]
//   - time: HH:MM
//   - linear_scale: Min + Step*k within the scale
//
// Required fields are always answered. A Generator built WithSeed is fully
// reproducible for the same structure and call sequence.
package generate
