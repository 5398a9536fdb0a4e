/*
Package serialization provides a kind-tagged Codec facade over Json,
MsgPack, and Yaml. Only Json is required by the broker's wire contract;
MsgPack is an unimplemented placeholder and Yaml is a standalone codec
(the config loader reads its files through cleanenv, not through it).
*/
package serialization
