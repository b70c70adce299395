// Package ek60 decodes Simrad EK60 .raw acquisition files into raw units:
// length-framed datagrams carrying instrument configuration (CON0), sample
// data (RAW0) and NMEA telemetry (NME0). One frequency channel is extracted
// per decode and its received power converted to calibrated volume
// backscattering strength.
package ek60
