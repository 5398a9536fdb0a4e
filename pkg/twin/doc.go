/*
Package twin defines the device-twin document model: the four property
groups (meta, tag, desired, reported), the Target selector used by the
admin API and the registry's patch path, and the wire-only records
exchanged between the device agent and the registry over the broker.
*/
package twin
