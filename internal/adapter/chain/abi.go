package chain

// Only the methods the relay calls are declared.
const registrarABI = `[
  {"type":"function","name":"register","stateMutability":"nonpayable",
   "inputs":[{"name":"username","type":"string"},{"name":"owner","type":"address"}],"outputs":[]},
  {"type":"function","name":"getUsername","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"string"}]}
]`

const resolverABI = `[
  {"type":"function","name":"addr","stateMutability":"view",
   "inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"text","stateMutability":"view",
   "inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"setText","stateMutability":"nonpayable",
   "inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"},{"name":"value","type":"string"}],"outputs":[]}
]`
