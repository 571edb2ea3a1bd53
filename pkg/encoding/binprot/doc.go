// Package binprot implements a compact, schema-less binary format in the
// style of OCaml's bin_prot, together with a two-sided bridge between Go
// values and that format.
//
// The wire layer (Writer, Reader and the Append helpers) encodes scalars:
// integers use the shortest of a literal byte (0x00-0x7F) or a header code
// followed by a 1, 2, 4 or 8 byte little-endian payload; floats are eight
// little-endian bytes; bool, option and unit are single tag bytes; strings and
// byte buffers carry a nat0 length prefix.
//
// The bridge layer mirrors serde's double dispatch. A value implements
// Encodable and picks which Serializer method describes it; a target
// implements Decodable and tells the Deserializer which primitive it expects,
// supplying a Visitor to receive it. Nothing on the wire says what type comes
// next, so both sides must agree on the shape.
//
// Sequences and maps carry a nat0 element count. Tuples and structs carry
// nothing but their fields in order. Enums carry a nat0 variant index
// followed by the payload of that variant.
//
// Value and Target adapt ordinary Go values by reflection for callers that do
// not want to write Encode and Decode methods by hand.
package binprot
